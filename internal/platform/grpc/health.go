// Package grpc serves and probes the standard gRPC health protocol.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/timeouts"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes grpc.health.v1 on its own listener.
type HealthServer struct {
	addr     string
	listener net.Listener
	server   *gogrpc.Server
	health   *health.Server
	logger   *zap.Logger
}

// NewHealthServer binds addr and registers the health service. Every service
// starts NOT_SERVING until SetServing is called.
func NewHealthServer(addr string, logger *zap.Logger) (*HealthServer, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("health address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	server := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{
		addr:     listener.Addr().String(),
		listener: listener,
		server:   server,
		health:   healthServer,
		logger:   logger,
	}, nil
}

// Addr returns the bound listener address.
func (s *HealthServer) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// SetServing flips the status reported for service. The empty name is the
// overall process status.
func (s *HealthServer) SetServing(service string, serving bool) {
	if s == nil || s.health == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Serve blocks until ctx ends or the server fails.
func (s *HealthServer) Serve(ctx context.Context) error {
	if s == nil || s.server == nil {
		return fmt.Errorf("health server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(s.listener)
	}()
	s.logger.Info("health server listening", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			s.server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(timeouts.Shutdown):
			s.server.Stop()
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve health: %w", err)
	}
}

// WaitForHealth blocks until the gRPC health check reports SERVING or the
// context ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logger *zap.Logger) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := grpc_health_v1.NewHealthClient(conn)
	backoff := 200 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		response, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			return nil
		}
		if err != nil {
			logger.Debug("waiting for health", zap.Error(err))
		} else {
			logger.Debug("waiting for health", zap.Stringer("status", response.GetStatus()))
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff = min(backoff*2, time.Second)
		}
	}
}
