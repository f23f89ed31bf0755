package httpapi

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

func startBufGRPC(t *testing.T, g *GRPCHealth) *grpc.ClientConn {
	t.Helper()

	listener := bufconn.Listen(bufSize)
	go func() {
		if err := g.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			t.Logf("grpc serve error: %v", err)
		}
	}()

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.Dial()
	}
	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		g.Stop()
		_ = listener.Close()
	})
	return conn
}

func TestGRPCHealthServing(t *testing.T) {
	conn := startBufGRPC(t, NewGRPCHealth(ReadyProbe{}))
	client := grpc_health_v1.NewHealthClient(conn)

	for _, service := range []string{"", serviceName} {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("check %q: %v", service, err)
		}
		if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
			t.Fatalf("check %q: status %s", service, resp.Status)
		}
	}
}

func TestGRPCHealthUnknownService(t *testing.T) {
	conn := startBufGRPC(t, NewGRPCHealth(ReadyProbe{}))
	client := grpc_health_v1.NewHealthClient(conn)

	if _, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "no-such"}); err == nil {
		t.Fatal("expected NotFound for unknown service")
	}
}
