package grpcclient

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient consulta el servicio de health de un sentryd (sonda de
// contenedor, herramientas).
type HealthClient struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

func NewHealthClient(addr string, opts ...grpc.DialOption) (*HealthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &HealthClient{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

func (h *HealthClient) Close() error {
	return h.conn.Close()
}

// Check devuelve el estado del servicio con un timeout de 5 s.
func (h *HealthClient) Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
}
