package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/config"
	"github.com/shashiranjanraj/meetup/internal/kernel"
	"github.com/shashiranjanraj/meetup/pkg/cache"
	"github.com/shashiranjanraj/meetup/pkg/database"
	"github.com/shashiranjanraj/meetup/pkg/logger"
)

// OpenStore connects the Store selected by DB_DRIVER.
func OpenStore(ctx context.Context) (repositories.Store, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	driver := config.DatabaseDriver()
	if driver == "mongo" {
		client, err := database.OpenMongo(ctx, config.MongoURI())
		if err != nil {
			return nil, err
		}
		return repositories.NewMongoStore(client, config.MongoDatabase()), nil
	}

	db, err := database.OpenSQL(driver, config.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	return repositories.NewGormStore(db), nil
}

// Boot opens every backend the configuration names and builds the
// Application on top of them. Optional backends that are configured but
// unreachable fail the boot.
func Boot(ctx context.Context) (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cleanup []func()
	fail := func(err error) (*Application, error) {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
		return nil, err
	}

	if uri := config.LogMongoURI(); uri != "" {
		h, err := logger.DialMongoHandler(ctx, uri, config.MongoDatabase(), "logs", slog.LevelInfo)
		if err != nil {
			return fail(err)
		}
		logger.Use(logger.NewMultiHandler(logger.L.Handler(), h))
		cleanup = append(cleanup, func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = h.Close(cctx)
		})
	}

	store, err := OpenStore(ctx)
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, func() { _ = store.Close() })

	opts := Options{
		Store:   store,
		Google:  services.NewGoogleUserInfo(config.GoogleUserInfoURL()),
		Workers: config.WorkerPoolSize(),
		Kernel: kernel.Options{
			CORSOrigins: config.CORSOrigins(),
			RateLimit:   config.RateLimit(),
		},
	}

	if addr := config.RedisAddr(); addr != "" {
		c, err := cache.Connect(ctx, addr, config.RedisPassword(), "users")
		if err != nil {
			return fail(err)
		}
		opts.Cache = c
		cleanup = append(cleanup, func() { _ = c.Close() })
	}

	if url := config.NATSURL(); url != "" {
		nc, err := nats.Connect(url,
			nats.Name("meetup"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("nats reconnected", "url", nc.ConnectedUrl())
			}),
		)
		if err != nil {
			return fail(fmt.Errorf("nats: connect: %w", err))
		}
		opts.NATS = nc
		cleanup = append(cleanup, func() { _ = nc.Drain() })
	}

	a, err := New(opts)
	if err != nil {
		return fail(err)
	}
	for _, fn := range cleanup {
		a.onClose(fn)
	}
	logger.Info("application booted",
		"env", config.AppEnv(),
		"db_driver", config.DatabaseDriver(),
		"cache", opts.Cache != nil,
		"nats", opts.NATS != nil,
	)
	return a, nil
}
