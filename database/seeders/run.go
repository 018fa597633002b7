// Package seeders provides a registry of database seed functions.
//
// Define a seeder in any file in this package:
//
//	func init() {
//	    Register("admin", func(ctx context.Context, store repositories.Store) error {
//	        return Admin(ctx, store, config.AdminEmail(), config.AdminPassword())
//	    })
//	}
//
// Then run it with: meetup seed
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shashiranjanraj/meetup/app/repositories"
)

// SeederFunc is the signature for a seed function. Seeders must be safe to
// run more than once.
type SeederFunc func(ctx context.Context, store repositories.Store) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every registered seeder in registration order and stops
// on the first error. Progress goes to out, which may be nil.
func RunAll(ctx context.Context, store repositories.Store, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "  • Running seeder: %s … ", e.name)
		if err := e.fn(ctx, store); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
