package grpc

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

// HealthServer exposes grpc.health.v1 and reflection for the marketplace service.
type HealthServer struct {
	server      *grpc.Server
	health      *health.Server
	serviceName string
	logger      *logger.Logger
}

func NewHealthServer(serviceName string, appLogger *logger.Logger) *HealthServer {
	log := appLogger.Named("gRPC")
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(LoggingInterceptor(log)),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return &HealthServer{
		server:      server,
		health:      healthServer,
		serviceName: serviceName,
		logger:      log,
	}
}

// Serve marks the service SERVING and blocks until the listener closes.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	s.logger.Info("gRPC health server listening", zap.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Shutdown reports NOT_SERVING and stops gracefully, forcing a stop when ctx expires.
func (s *HealthServer) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("gRPC graceful stop timed out, forcing stop")
		s.server.Stop()
	}
}

func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		duration := time.Since(start)
		if err != nil {
			log.Error("gRPC request failed", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
		} else {
			log.Debug("gRPC request completed", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		}
		return resp, err
	}
}
