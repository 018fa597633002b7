package app

// Implementations behind the CLI sub-commands.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/database/seeders"
	"github.com/shashiranjanraj/meetup/pkg/migration"
)

var errNoMigrationHistory = errors.New("the document store keeps no migration history; run migrate to ensure indexes")

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(repositories.Store) error) error {
	store, err := OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// Migrate applies pending relational migrations, or creates the indexes of
// the document store.
func Migrate(ctx context.Context, out io.Writer) error {
	return withStore(ctx, func(store repositories.Store) error {
		switch s := store.(type) {
		case *repositories.GormStore:
			return migration.New(s.DB(), out).Run()
		case *repositories.MongoStore:
			if err := s.EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Indexes are up to date.")
			return nil
		default:
			return fmt.Errorf("migrate: unsupported store %T", store)
		}
	})
}

func Rollback(ctx context.Context, out io.Writer) error {
	return withStore(ctx, func(store repositories.Store) error {
		s, ok := store.(*repositories.GormStore)
		if !ok {
			return errNoMigrationHistory
		}
		return migration.New(s.DB(), out).Rollback()
	})
}

func MigrationStatus(ctx context.Context, out io.Writer) error {
	return withStore(ctx, func(store repositories.Store) error {
		s, ok := store.(*repositories.GormStore)
		if !ok {
			return errNoMigrationHistory
		}
		return migration.New(s.DB(), out).Status()
	})
}

// Seed runs every registered seeder.
func Seed(ctx context.Context, out io.Writer) error {
	return withStore(ctx, func(store repositories.Store) error {
		if err := seeders.RunAll(ctx, store, out); err != nil {
			return err
		}
		fmt.Fprintln(out, "Seeding complete.")
		return nil
	})
}

// RouteList prints the HTTP surface. It needs no backend.
func RouteList(out io.Writer) error {
	a, err := New(Options{Store: noStore{}})
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range a.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}

// noStore lets the route table be built without a database.
type noStore struct{ repositories.Store }

func (noStore) Close() error { return nil }
