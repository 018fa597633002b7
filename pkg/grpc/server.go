// Package grpc runs the gRPC side port: the standard health service backed
// by a readiness probe, with recovery, logging and metrics interceptors.
//
//	srv := grpc.New(store.Ping)
//	if err := srv.Start(config.GRPCPort()); err != nil { ... }
//	defer srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/metrics"
)

var (
	grpcRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetup",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "Total number of gRPC calls completed by method and code.",
	}, []string{"grpc_method", "grpc_code"})

	grpcRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetup",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "Histogram of gRPC response latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"grpc_method"})
)

func init() {
	metrics.MustRegister(grpcRequestsTotal, grpcRequestDuration)
}

func recoveryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func observeInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	dur := time.Since(start)

	code := status.Code(err)
	grpcRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	grpcRequestDuration.WithLabelValues(info.FullMethod).Observe(dur.Seconds())

	level := slog.LevelDebug
	if code != codes.OK {
		level = slog.LevelWarn
	}
	logger.L.Log(ctx, level, "grpc: request",
		"method", info.FullMethod,
		"duration_ms", dur.Milliseconds(),
		"code", code.String(),
	)
	return resp, err
}

// Probe reports whether the service can take traffic.
type Probe func(ctx context.Context) error

type healthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	probe Probe
}

func (h *healthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", "meetup":
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	st := grpc_health_v1.HealthCheckResponse_SERVING
	if h.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.probe(pctx); err != nil {
			logger.Warn("grpc: health probe failed", "error", err)
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	return &grpc_health_v1.HealthCheckResponse{Status: st}, nil
}

type Server struct {
	srv *grpc.Server
}

func New(probe Probe) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(1<<20),
	)
	grpc_health_v1.RegisterHealthServer(srv, &healthServer{probe: probe})
	reflection.Register(srv)
	return &Server{srv: srv}
}

// Start listens on port and serves in the background.
func (s *Server) Start(port string) error {
	addr := ":" + port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	logger.Info("gRPC server starting", "addr", addr)
	go s.Serve(lis)
	return nil
}

func (s *Server) Serve(lis net.Listener) {
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		logger.Error("grpc: serve error", "error", err)
	}
}

// Stop waits for in-flight RPCs.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	logger.Info("gRPC server shutting down")
	s.srv.GracefulStop()
}
