package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// GormStore is the relational Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the handle for migrations and seeders.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Users() UserRepository         { return &gormUsers{db: s.db} }
func (s *GormStore) Meets() MeetRepository         { return &gormMeets{db: s.db} }
func (s *GormStore) Attendees() AttendeeRepository { return &gormAttendees{db: s.db} }
func (s *GormStore) Events() EventRepository       { return &gormEvents{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"UNIQUE constraint failed",    // sqlite
		"duplicate key value",         // postgres
		"Duplicate entry",             // mysql
		"Cannot insert duplicate key", // sqlserver
		"Violation of UNIQUE KEY",     // sqlserver
		"Violation of PRIMARY KEY",    // sqlserver
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
