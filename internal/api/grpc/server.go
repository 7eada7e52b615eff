package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"rental-market-backend/internal/api/grpc/interceptor"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/security"
)

// ServiceName is the health service name reported alongside the overall "" status.
const ServiceName = "rentalmarket.Marketplace"

const pingTimeout = 3 * time.Second

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health protocol for load balancers and probes.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	checker    HealthChecker
}

func NewServer(issuer security.TokenIssuer, checker HealthChecker) *Server {
	authInterceptor := interceptor.NewAuthInterceptor(issuer)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.UnaryLogging(), authInterceptor.Unary()),
		grpc.ChainStreamInterceptor(interceptor.StreamLogging(), authInterceptor.Stream()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	// Register reflection service for grpcurl
	reflection.Register(s)

	srv := &Server{grpcServer: s, health: hs, checker: checker}
	srv.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return srv
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// CheckHealth pings the store once and publishes the result.
func (s *Server) CheckHealth(ctx context.Context) {
	if s.checker == nil {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.checker.Ping(pingCtx); err != nil {
		logger.Warn("Health check failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// WatchHealth re-checks the store every interval until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	s.CheckHealth(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckHealth(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
