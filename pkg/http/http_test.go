package http

import (
	"context"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"email":"a@b.co"}`))
	}))
	defer srv.Close()

	resp, err := Get(srv.URL).Bearer("abc").Send()
	require.NoError(t, err)
	require.NoError(t, resp.Throw())

	var out struct{ Email string }
	require.NoError(t, resp.JSON(&out))
	assert.Equal(t, "a@b.co", out.Email)
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(gohttp.StatusBadGateway)
			return
		}
		w.WriteHeader(gohttp.StatusCreated)
	}))
	defer srv.Close()

	resp, err := Post(srv.URL).Body(map[string]string{"a": "b"}).Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSendReturnsLastServerError(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := Get(srv.URL).Retry(2, time.Millisecond).Send()
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Error(t, resp.Throw())
}

func TestSendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Get("http://127.0.0.1:1").WithContext(ctx).Send()
	assert.Error(t, err)
}
