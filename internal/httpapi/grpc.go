package httpapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"benchtrack.org/internal/obs"
)

// GRPCHealth exposes the readiness probe over the standard gRPC health
// protocol so orchestrators can probe the process without speaking HTTP.
type GRPCHealth struct {
	server *grpc.Server
	health *health.Server
	probe  ReadyProbe

	interval time.Duration
	done     chan struct{}
}

// NewGRPCHealth builds the health server around the given probe.
func NewGRPCHealth(probe ReadyProbe) *GRPCHealth {
	g := &GRPCHealth{
		server:   grpc.NewServer(),
		health:   health.NewServer(),
		probe:    probe,
		interval: 5 * time.Second,
		done:     make(chan struct{}),
	}
	grpc_health_v1.RegisterHealthServer(g.server, g.health)
	return g
}

// Serve blocks serving gRPC on lis while a background loop keeps the health
// status in sync with the readiness probe.
func (g *GRPCHealth) Serve(lis net.Listener) error {
	g.refresh()
	go g.loop()
	return g.server.Serve(lis)
}

// Stop gracefully stops the server and the probe loop.
func (g *GRPCHealth) Stop() {
	close(g.done)
	g.server.GracefulStop()
}

func (g *GRPCHealth) loop() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.refresh()
		}
	}
}

func (g *GRPCHealth) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := g.probe.Check(ctx); err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		obs.SetReady(false)
	} else {
		obs.SetReady(true)
	}
	// Empty service name is the conventional whole-process check.
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(serviceName, status)
}
