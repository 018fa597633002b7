package workerpool_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/meetup/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64

	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		err := pool.SubmitWait(func() {
			defer wg.Done()
			count.Add(1)
		})
		if err != nil {
			t.Fatalf("SubmitWait returned unexpected error: %v", err)
		}
	}

	wg.Wait()

	if got := count.Load(); got != n {
		t.Errorf("expected %d tasks to run, got %d", n, got)
	}
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	submitted := make(chan struct{})

	_ = pool.SubmitWait(func() {
		close(submitted)
		<-blocker
	})
	<-submitted

	_ = pool.Submit(func() {})
	_ = pool.Submit(func() {})

	err := pool.Submit(func() {})
	if !errors.Is(err, workerpool.ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}

	close(blocker)
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()

	err := pool.Submit(func() {})
	if !errors.Is(err, workerpool.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after Shutdown, got %v", err)
	}
}

func TestPool_PanicRecovery(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)

	_ = pool.SubmitWait(func() {
		defer wg.Done()
		panic("boom")
	})

	wg.Wait()

	normal := make(chan struct{})
	_ = pool.SubmitWait(func() { close(normal) })

	select {
	case <-normal:
	case <-time.After(2 * time.Second):
		t.Fatal("task after panic never ran")
	}
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	pool := workerpool.New(1)

	var ran atomic.Int64
	for i := 0; i < 2; i++ {
		if err := pool.SubmitWait(func() {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		}); err != nil {
			t.Fatalf("SubmitWait: %v", err)
		}
	}
	pool.Shutdown()
	pool.Shutdown()

	if got := ran.Load(); got != 2 {
		t.Errorf("expected queued tasks to finish before Shutdown returns, got %d", got)
	}
	if err := pool.SubmitWait(func() {}); !errors.Is(err, workerpool.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_Shutdown_NoGoroutineLeak(t *testing.T) {
	pool := workerpool.New(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		_ = pool.SubmitWait(func() {
			defer wg.Done()
			time.Sleep(1 * time.Millisecond)
		})
	}

	wg.Wait()
	pool.Shutdown()
}
