// Package app assembles the meetup application: services over a Store,
// the post-commit event fan-out, the WebSocket hub and the HTTP kernel.
//
// Tests build one over an in-memory store:
//
//	a, err := app.New(app.Options{Store: repositories.NewGormStore(db)})
//	h := a.Handler()
//
// The CLI uses Boot, which opens every backend named in the configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shashiranjanraj/meetup/app/listeners"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/app/routes"
	"github.com/shashiranjanraj/meetup/app/schema"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/internal/kernel"
	"github.com/shashiranjanraj/meetup/pkg/cache"
	"github.com/shashiranjanraj/meetup/pkg/event"
	"github.com/shashiranjanraj/meetup/pkg/graphql"
	"github.com/shashiranjanraj/meetup/pkg/router"
	"github.com/shashiranjanraj/meetup/pkg/workerpool"
	"github.com/shashiranjanraj/meetup/pkg/ws"
)

const userCacheTTL = 5 * time.Minute

// Options are the backends an Application runs on. Only Store is required.
type Options struct {
	Store repositories.Store

	// Cache enables the authenticated-user cache.
	Cache *cache.Cache
	// NATS enables publishing committed events.
	NATS *nats.Conn
	// Google enables social login.
	Google services.ProfileFetcher

	// Workers sizes the pool running post-commit listeners. Zero runs them
	// synchronously on the request goroutine.
	Workers int

	Kernel kernel.Options
}

type Application struct {
	store  repositories.Store
	cache  *cache.Cache
	nats   *nats.Conn
	hub    *ws.Hub
	pool   *workerpool.Pool
	kernel *kernel.HTTPKernel

	closers []func()
}

func New(opts Options) (*Application, error) {
	if opts.Store == nil {
		return nil, errors.New("app: a store is required")
	}

	a := &Application{
		store: opts.Store,
		cache: opts.Cache,
		nats:  opts.NATS,
		hub:   ws.NewHub(),
	}
	if opts.Workers > 0 {
		a.pool = workerpool.New(opts.Workers)
	}
	bus := event.NewBus(a.pool)

	var users *services.UserCache
	if opts.Cache != nil {
		users = services.NewUserCache(opts.Cache, userCacheTTL)
	}

	// A nil *nats.Conn inside the interface would not read as "disabled".
	var pub listeners.Publisher
	if opts.NATS != nil {
		pub = opts.NATS
	}
	listeners.Register(bus, opts.Store, a.hub, pub)

	deps := routes.Deps{
		Auth:   services.NewAuthService(opts.Store, users, opts.Google),
		Users:  services.NewUserService(opts.Store, users),
		Admin:  services.NewAdminService(opts.Store, users),
		Meets:  services.NewMeetService(opts.Store, bus),
		Events: services.NewEventService(opts.Store),
		Hub:    a.hub,
	}

	s, err := schema.New(deps.Users, deps.Meets, deps.Events)
	if err != nil {
		return nil, fmt.Errorf("app: graphql schema: %w", err)
	}
	deps.GraphQL = graphql.Handler(s)

	kopts := opts.Kernel
	if kopts.Probe == nil {
		kopts.Probe = a.Ping
	}
	a.kernel = kernel.NewHTTPKernel(kopts, func(r *router.Router) {
		routes.RegisterAPI(r, deps)
	})
	return a, nil
}

func (a *Application) Handler() http.Handler { return a.kernel.Handler() }

func (a *Application) Routes() []router.Route { return a.kernel.Routes() }

func (a *Application) Store() repositories.Store { return a.store }

// Ping reports whether every configured backend is reachable.
func (a *Application) Ping(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if a.cache != nil {
		if err := a.cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	if a.nats != nil && !a.nats.IsConnected() {
		return errors.New("nats: not connected")
	}
	return nil
}

// onClose registers cleanup run by Close in reverse order.
func (a *Application) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close drains listeners, then releases every backend.
func (a *Application) Close() {
	a.kernel.Close()
	if a.pool != nil {
		a.pool.Shutdown()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
