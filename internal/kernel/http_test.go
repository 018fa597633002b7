package kernel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/meetup/pkg/reqid"
	"github.com/shashiranjanraj/meetup/pkg/router"
)

func TestHealthReflectsProbe(t *testing.T) {
	var down error
	k := NewHTTPKernel(Options{Probe: func(context.Context) error { return down }})
	defer k.Close()

	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down = errors.New("db gone")
	rec = httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGlobalMiddleware(t *testing.T) {
	k := NewHTTPKernel(Options{CORSOrigins: "*", RateLimit: 1}, func(r *router.Router) {
		r.Get("/boom", "boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	})
	defer k.Close()

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRoutesIncludeOps(t *testing.T) {
	k := NewHTTPKernel(Options{})
	defer k.Close()

	var paths []string
	for _, r := range k.Routes() {
		paths = append(paths, r.Path)
	}
	assert.ElementsMatch(t, []string{"/health", "/metrics"}, paths)
}
