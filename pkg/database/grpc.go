package database

import (
	"fmt"
	"net"

	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCHealth bundles the grpc server and its health service
type GRPCHealth struct {
	Server *grpc.Server
	Health *health.Server
}

// StartGRPCHealthServer 啟動 grpc health / reflection server 供編排工具探測
func StartGRPCHealthServer(port, serviceName string) (*GRPCHealth, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("grpc listen :%s: %w", port, err)
	}

	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.Log.Info("grpc health server listening", zap.String("port", port))
		if err := s.Serve(lis); err != nil {
			logger.Log.Error("grpc health server stopped", zap.Error(err))
		}
	}()

	return &GRPCHealth{Server: s, Health: hs}, nil
}

// Shutdown mark not serving then stop
func (g *GRPCHealth) Shutdown() {
	g.Health.Shutdown()
	g.Server.GracefulStop()
}
