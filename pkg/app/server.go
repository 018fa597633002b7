package app

import (
	"context"

	"github.com/shashiranjanraj/meetup/config"
	"github.com/shashiranjanraj/meetup/internal/server"
	"github.com/shashiranjanraj/meetup/pkg/grpc"
)

// Serve runs the WebSocket hub, the optional gRPC health server and the
// HTTP server until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	if port := config.GRPCPort(); port != "" {
		g := grpc.New(a.Ping)
		if err := g.Start(port); err != nil {
			return err
		}
		defer g.Stop()
	}

	return server.Start(ctx, ":"+config.AppPort(), a.Handler())
}
