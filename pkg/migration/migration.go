// Package migration runs versioned schema changes against a GORM database
// and records each applied step in a batch-tracking table.
//
//	func init() {
//	    migration.Register("20240101000000_create_roles_table", &CreateRolesTable{})
//	}
package migration

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/meetup/pkg/logger"
)

type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "schema_migrations" }

// Entry is a named migration.
type Entry struct {
	Name string
	M    Migration
}

var (
	mu       sync.Mutex
	registry []Entry
)

// Register adds a migration to the global registry. Names are
// timestamp-prefixed and applied in lexical order.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, Entry{Name: name, M: m})
}

// Registered returns a sorted copy of the global registry.
func Registered() []Entry {
	mu.Lock()
	out := make([]Entry, len(registry))
	copy(out, registry)
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type Runner struct {
	db         *gorm.DB
	out        io.Writer
	migrations []Entry
}

// New returns a Runner over the global registry. Progress lines go to out;
// a nil out discards them.
func New(db *gorm.DB, out io.Writer) *Runner {
	return NewWith(db, out, Registered())
}

func NewWith(db *gorm.DB, out io.Writer, migrations []Entry) *Runner {
	if out == nil {
		out = io.Discard
	}
	sorted := make([]Entry, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Runner{db: db, out: out, migrations: sorted}
}

func (r *Runner) ensureTable() error {
	return r.db.AutoMigrate(&record{})
}

func (r *Runner) applied() (map[string]record, error) {
	var ran []record
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}
	m := make(map[string]record, len(ran))
	for _, rec := range ran {
		m[rec.Name] = rec
	}
	return m, nil
}

// Pending lists migrations not yet applied.
func (r *Runner) Pending() ([]Entry, error) {
	if err := r.ensureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	ran, err := r.applied()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch applied: %w", err)
	}
	var pending []Entry
	for _, e := range r.migrations {
		if _, ok := ran[e.Name]; !ok {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Run applies every pending migration as one batch. Each step runs in its
// own transaction together with its tracking row.
func (r *Runner) Run() error {
	pending, err := r.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}

	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	batch++

	for _, e := range pending {
		logger.Info("migration: running", "name", e.Name, "batch", batch)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := e.M.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: e.Name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s up: %w", e.Name, err)
		}
		fmt.Fprintf(r.out, "Migrated:    %s\n", e.Name)
	}
	return nil
}

// Rollback reverts the most recent batch, newest first.
func (r *Runner) Rollback() error {
	if err := r.ensureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var records []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&records).Error; err != nil {
		return err
	}

	known := make(map[string]Migration, len(r.migrations))
	for _, e := range r.migrations {
		known[e.Name] = e.M
	}

	for _, rec := range records {
		m, ok := known[rec.Name]
		if !ok {
			return fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		logger.Info("migration: rolling back", "name", rec.Name, "batch", batch)
		rec := rec
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&rec).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		fmt.Fprintf(r.out, "Rolled back: %s\n", rec.Name)
	}
	return nil
}

// Status writes a table of every known migration and its batch.
func (r *Runner) Status() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	ran, err := r.applied()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%-50s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 68))
	for _, e := range r.migrations {
		if rec, ok := ran[e.Name]; ok {
			fmt.Fprintf(r.out, "%-50s  %-8s  %d\n", e.Name, "Ran", rec.Batch)
		} else {
			fmt.Fprintf(r.out, "%-50s  %-8s  -\n", e.Name, "Pending")
		}
	}
	return nil
}

func (r *Runner) lastBatch() (int, error) {
	var max struct{ Max int }
	err := r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&max).Error
	return max.Max, err
}
