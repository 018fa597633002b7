// Package event is an in-process dispatcher for committed domain events.
//
// Listeners run on a worker pool after the triggering request has
// committed; a listener failure is logged and counted, never returned to
// the caller that fired the event.
package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/metrics"
	"github.com/shashiranjanraj/meetup/pkg/workerpool"
)

// Handler processes one payload.
type Handler func(ctx context.Context, payload any) error

type listener struct {
	name string
	fn   Handler
}

type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	pool      *workerpool.Pool
	timeout   time.Duration
}

// NewBus dispatches on pool. A nil pool runs listeners synchronously,
// which tests rely on.
func NewBus(pool *workerpool.Pool) *Bus {
	return &Bus{
		listeners: make(map[string][]listener),
		pool:      pool,
		timeout:   10 * time.Second,
	}
}

// Listen registers fn for event under a name used in logs and metrics.
func (b *Bus) Listen(event, name string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], listener{name: name, fn: fn})
}

// ListenAll registers fn for every event in events.
func (b *Bus) ListenAll(events []string, name string, fn Handler) {
	for _, e := range events {
		b.Listen(e, name, fn)
	}
}

// Fire hands payload to every listener of event. It never blocks on
// listener work; when the pool is saturated the delivery is dropped.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	if b == nil {
		return
	}

	b.mu.RLock()
	ls := append([]listener(nil), b.listeners[event]...)
	b.mu.RUnlock()

	log := logger.WithCtx(ctx)
	for _, l := range ls {
		l := l
		run := func() { b.deliver(event, l, payload) }
		if b.pool == nil {
			run()
			continue
		}
		if err := b.pool.Submit(run); err != nil {
			result := "dropped"
			if errors.Is(err, workerpool.ErrPoolClosed) {
				result = "closed"
			}
			metrics.Dispatched.WithLabelValues(l.name, result).Inc()
			log.Warn("event delivery skipped", "event", event, "listener", l.name, "error", err)
		}
	}
}

func (b *Bus) deliver(event string, l listener, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := l.fn(ctx, payload); err != nil {
		metrics.Dispatched.WithLabelValues(l.name, "error").Inc()
		logger.Warn("event listener failed", "event", event, "listener", l.name, "error", err)
		return
	}
	metrics.Dispatched.WithLabelValues(l.name, "ok").Inc()
}
