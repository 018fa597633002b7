// Package ctx provides a request context for controllers.
//
//	func (mc *MeetController) Show(c *ctx.Context) {
//	    meet, err := mc.meets.Retrieve(c.Context(), c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.JSON(http.StatusOK, resources.NewMeet(meet))
//	}
//
//	router.Get("/meets/{id}", "meets.show", ctx.Wrap(mc.Show))
package ctx

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/bind"
	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/response"
)

type HandlerFunc func(c *Context)

// Wrap adapts a HandlerFunc to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// Param returns a chi URL parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-Ip, or RemoteAddr.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if real := c.R.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func (c *Context) Context() context.Context { return c.R.Context() }

// BindJSON decodes and validates the body. On failure it writes a 400
// (malformed) or 422 (rule violation) and returns false.
//
//	var in CreateMeetRequest
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, "Request body invalid.")
		return false
	}
	if len(errs) > 0 {
		response.ValidationError(c.W, errs)
		c.status = http.StatusUnprocessableEntity
		return false
	}
	return true
}

// BindJSONStrict is BindJSON for partial updates. A key outside allowed is
// rejected as an invalid body.
func (c *Context) BindJSONStrict(dest any, allowed ...string) bool {
	errs, err := bind.JSONStrict(c.R, dest, allowed...)
	if err != nil {
		c.Error(http.StatusBadRequest, "Request body invalid.")
		return false
	}
	if len(errs) > 0 {
		response.ValidationError(c.W, errs)
		c.status = http.StatusUnprocessableEntity
		return false
	}
	return true
}

func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Message writes a {"success":true,"message":...} acknowledgement.
func (c *Context) Message(code int, msg string) {
	c.status = code
	response.Message(c.W, code, msg)
}

func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

func (c *Context) NoContent() {
	c.status = http.StatusNoContent
	response.NoContent(c.W)
}

// Fail renders err through the apperr taxonomy. Internal errors are logged
// with the request logger and rendered with a generic message.
func (c *Context) Fail(err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		logger.WithCtx(c.Context()).Error("request failed",
			"method", c.R.Method,
			"path", c.R.URL.Path,
			"error", err,
		)
	}
	c.status = e.Status()
	response.JSON(c.W, e.Status(), response.Envelope{Message: e.Message, Errors: e.Fields})
}

// WrittenStatus is 0 until a response has been written.
func (c *Context) WrittenStatus() int { return c.status }
