package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/pkg/workerpool"
)

func TestFireSynchronousWithoutPool(t *testing.T) {
	bus := NewBus(nil)

	var got []string
	bus.Listen("meet.created", "a", func(_ context.Context, p any) error {
		got = append(got, "a:"+p.(string))
		return nil
	})
	bus.Listen("meet.created", "b", func(context.Context, any) error {
		got = append(got, "b")
		return errors.New("ignored")
	})
	bus.Listen("other", "c", func(context.Context, any) error {
		got = append(got, "c")
		return nil
	})

	bus.Fire(context.Background(), "meet.created", "m1")
	assert.Equal(t, []string{"a:m1", "b"}, got)
}

func TestFireOnPool(t *testing.T) {
	pool := workerpool.New(2)
	bus := NewBus(pool)

	var wg sync.WaitGroup
	wg.Add(3)
	var mu sync.Mutex
	count := 0
	bus.ListenAll([]string{"x", "y", "z"}, "counter", func(context.Context, any) error {
		defer wg.Done()
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for _, e := range []string{"x", "y", "z"} {
		bus.Fire(context.Background(), e, nil)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listeners did not run")
	}
	pool.Shutdown()
	assert.Equal(t, 3, count)
}

func TestFireAfterPoolShutdownIsSafe(t *testing.T) {
	pool := workerpool.New(1)
	pool.Shutdown()
	bus := NewBus(pool)

	called := false
	bus.Listen("x", "never", func(context.Context, any) error {
		called = true
		return nil
	})
	require.NotPanics(t, func() { bus.Fire(context.Background(), "x", nil) })
	assert.False(t, called)

	var nilBus *Bus
	require.NotPanics(t, func() { nilBus.Fire(context.Background(), "x", nil) })
}
