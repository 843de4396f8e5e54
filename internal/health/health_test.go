package health

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"

	"sentry-link/internal/grpcclient"
	"sentry-link/internal/link"
)

func startServer(t *testing.T) (*Server, *grpcclient.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	client, err := grpcclient.NewHealthClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("NewHealthClient() error = %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return srv, client
}

func check(t *testing.T, c *grpcclient.HealthClient, service string) *healthpb.HealthCheckResponse {
	t.Helper()
	res, err := c.Check(context.Background(), service)
	if err != nil {
		t.Fatalf("Check(%q) error = %v", service, err)
	}
	return res
}

func TestHealthFollowsLinkState(t *testing.T) {
	srv, client := startServer(t)

	serving := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}
	notServing := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}

	if got := check(t, client, ""); !proto.Equal(got, serving) {
		t.Errorf("process status = %v, want SERVING", got)
	}
	if got := check(t, client, Service); !proto.Equal(got, notServing) {
		t.Errorf("initial link status = %v, want NOT_SERVING", got)
	}

	srv.LinkStateChanged(link.StateConnected)
	if got := check(t, client, Service); !proto.Equal(got, serving) {
		t.Errorf("connected link status = %v, want SERVING", got)
	}

	srv.LinkStateChanged(link.StateDisconnected)
	if got := check(t, client, Service); !proto.Equal(got, notServing) {
		t.Errorf("disconnected link status = %v, want NOT_SERVING", got)
	}
}

func TestHealthUnknownService(t *testing.T) {
	_, client := startServer(t)
	if _, err := client.Check(context.Background(), "nope"); err == nil {
		t.Error("Check(unknown) want NotFound error")
	}
}
