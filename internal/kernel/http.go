// Package kernel assembles the HTTP handler: the global middleware stack,
// the ops endpoints and whatever routes the caller registers.
package kernel

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/meetup/pkg/metrics"
	"github.com/shashiranjanraj/meetup/pkg/middleware"
	"github.com/shashiranjanraj/meetup/pkg/reqid"
	"github.com/shashiranjanraj/meetup/pkg/response"
	"github.com/shashiranjanraj/meetup/pkg/router"
)

type Options struct {
	// CORSOrigins is a comma-separated allow-list, "*" for any.
	CORSOrigins string
	// RateLimit is the per-IP budget per minute. Zero disables limiting.
	RateLimit int
	// Probe backs GET /health. Nil always reports ok.
	Probe func(ctx context.Context) error
}

type HTTPKernel struct {
	router  *router.Router
	limiter *middleware.RateLimiter
}

func NewHTTPKernel(opts Options, routes ...func(*router.Router)) *HTTPKernel {
	r := router.New()
	k := &HTTPKernel{router: r}

	// Outermost first: metrics see total latency, recovery guards
	// everything below it, and the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(opts.CORSOrigins))
	if opts.RateLimit > 0 {
		k.limiter = middleware.NewRateLimiter(opts.RateLimit)
		r.Use(k.limiter.Middleware)
	}

	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", health(opts.Probe))

	for _, fn := range routes {
		fn(r)
	}
	return k
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Routes() []router.Route { return k.router.Routes() }

// Close stops the rate limiter's eviction loop.
func (k *HTTPKernel) Close() {
	if k.limiter != nil {
		k.limiter.Stop()
	}
}

func health(probe func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if probe != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := probe(ctx); err != nil {
				response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
