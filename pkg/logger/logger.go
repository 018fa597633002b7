// Package logger wraps log/slog with a process-wide logger and a
// per-request logger carried in the context.
//
//	log := logger.WithCtx(r.Context())
//	log.Info("meet created", "meet_id", meet.ID)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/meetup/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv())
	slog.SetDefault(L)
}

// New builds a JSON logger for production and a text logger elsewhere.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "testing", "test":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Use replaces the process logger. Handlers added later via WithCtx
// derive from it.
func Use(h slog.Handler) {
	L = slog.New(h)
	slog.SetDefault(L)
}

type ctxKey struct{}

// WithCtx returns the request logger stored by the Logger middleware, or
// the base logger when ctx has none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
