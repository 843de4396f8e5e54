// Package health publica el estado del enlace por el servicio estándar de
// health de gRPC: SERVING mientras hay un cliente conectado.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"sentry-link/internal/link"
)

// Service es el nombre del servicio que refleja el enlace. El servicio ""
// (proceso) está siempre SERVING mientras el servidor corre.
const Service = "sentry.link"

type Server struct {
	hs  *health.Server
	srv *grpc.Server
	lg  *slog.Logger
}

func NewServer(lg *slog.Logger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &Server{hs: hs, srv: srv, lg: lg.With("component", "health")}
}

// LinkStateChanged implementa link.StateObserver.
func (s *Server) LinkStateChanged(st link.ConnectionState) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if st == link.StateConnected {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.hs.SetServingStatus(Service, status)
	s.lg.Debug("health status updated", "service", Service, "status", status.String())
}

// Serve atiende en lis hasta que ctx se cancela.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.hs.Shutdown()
		s.srv.GracefulStop()
	}()
	s.lg.Info("gRPC health listening", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// ListenAndServe abre el puerto TCP y llama a Serve.
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("grpc listen :%s: %w", port, err)
	}
	return s.Serve(ctx, lis)
}
