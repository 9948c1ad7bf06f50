package gameserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/tallgrass/internal/config"
)

// HealthService is the grpc.health.v1 service name reporting whether the
// battle frontends accept trainers.
const HealthService = "tallgrass.battle"

// AdminServer is the gRPC admin endpoint. It serves grpc.health.v1 with
// HealthService NOT_SERVING until SetServing(true).
type AdminServer struct {
	cfg    config.AdminConfig
	logger *zap.Logger
	grpc   *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewAdminServer creates an AdminServer.
//
// Precondition: logger must be non-nil.
func NewAdminServer(cfg config.AdminConfig, logger *zap.Logger) *AdminServer {
	hs := health.NewServer()
	hs.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	srv := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	return &AdminServer{cfg: cfg, logger: logger, grpc: srv, health: hs}
}

// SetServing flips HealthService between SERVING and NOT_SERVING.
func (a *AdminServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	a.health.SetServingStatus(HealthService, status)
	a.logger.Info("health status changed",
		zap.String("service", HealthService),
		zap.Stringer("status", status),
	)
}

// ListenAndServe listens on the configured address and serves until Stop.
func (a *AdminServer) ListenAndServe() error {
	l, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(l)
}

// Serve handles gRPC requests on l until Stop.
func (a *AdminServer) Serve(l net.Listener) error {
	a.mu.Lock()
	a.listener = l
	a.mu.Unlock()
	a.logger.Info("admin gRPC listening", zap.String("addr", l.Addr().String()))
	if err := a.grpc.Serve(l); err != nil {
		return fmt.Errorf("serving admin gRPC: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains in-flight calls, forcing
// the server closed if ctx ends first.
func (a *AdminServer) Stop(ctx context.Context) error {
	a.health.Shutdown()
	done := make(chan struct{})
	go func() {
		a.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.grpc.Stop()
		<-done
		return ctx.Err()
	}
}

// Addr returns the listening address, or "" before Serve.
func (a *AdminServer) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}
