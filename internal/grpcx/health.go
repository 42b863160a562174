// Package grpcx serves the standard gRPC health service next to the REST API.
package grpcx

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/food-ordering/internal/logging"
)

// Pinger reports whether the backing store answers.
type Pinger func(ctx context.Context) error

type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	ping   Pinger
	name   string
}

func NewHealthServer(service string, ping Pinger) *HealthServer {
	h := health.NewServer()
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h)
	return &HealthServer{srv: s, health: h, ping: ping, name: service}
}

// Check updates the serving status from one ping.
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("store ping failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(h.name, status)
	return status
}

// Serve blocks on lis and refreshes the status every interval until ctx is
// done.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener, interval time.Duration) error {
	h.Check(ctx)
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				h.Check(ctx)
			}
		}
	}()
	return h.srv.Serve(lis)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
