// Package workerpool runs tasks on a fixed number of goroutines with a
// bounded queue.
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(task); errors.Is(err, workerpool.ErrPoolFull) {
//	    // drop or retry
//	}
package workerpool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/shashiranjanraj/meetup/pkg/logger"
)

var ErrPoolFull = errors.New("workerpool: pool is full")

var ErrPoolClosed = errors.New("workerpool: pool is closed")

type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts size workers. The queue holds 2*size pending tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit never blocks.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is queued.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Shutdown rejects new tasks and waits for queued ones to finish.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked",
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	task()
}
