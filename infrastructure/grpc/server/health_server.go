package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RelayService is the service name reported by the health endpoint.
const RelayService = "chat.relay"

// HealthServer exposes the standard grpc.health.v1 service while the relay runs.
type HealthServer struct {
	log      *slog.Logger
	listener net.Listener
	health   *health.Server
}

func NewHealthServer(log *slog.Logger, listener net.Listener) *HealthServer {
	return &HealthServer{log: log, listener: listener, health: health.NewServer()}
}

// Run serves until ctx is done, then reports NOT_SERVING and stops gracefully.
// A failing listener is logged and not retried.
func (s *HealthServer) Run(ctx context.Context) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(s.log)))
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(RelayService, healthpb.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting gRPC health server", "address", s.listener.Addr().String())
		errChan <- srv.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		srv.GracefulStop()
		s.log.Info("gRPC health server stopped")
		return nil
	case err := <-errChan:
		s.health.Shutdown()
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.log.Error("gRPC health server failed", "error", err)
		}
		return nil
	}
}

// Shutdown reports NOT_SERVING without stopping the server.
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
}
