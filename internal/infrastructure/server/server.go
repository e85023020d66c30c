package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/eslsoft/vocdrill/internal/adapter/connectrpc"
	"github.com/eslsoft/vocdrill/internal/adapter/rest"
	"github.com/eslsoft/vocdrill/internal/infrastructure/auth"
	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
	"github.com/eslsoft/vocdrill/internal/infrastructure/metrics"
)

// Server represents the application server
type Server struct {
	config     *config.Config
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer creates a new server instance. The gRPC listener only carries the
// health and reflection services; the HTTP listener serves REST, Connect and
// metrics.
func NewServer(
	cfg *config.Config,
	logger *logrus.Logger,
	restHandler *rest.Handler,
	svc *connectrpc.LearningServiceServer,
	authn *auth.Authenticator,
	recorder *metrics.Recorder,
) (*Server, func(), error) {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logging.UnaryServerInterceptor(InterceptorLogger(logger))),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus(connectrpc.LearningServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	// We assume same host different port for grpc
	endpoint := fmt.Sprintf("localhost:%d", cfg.Server.GRPCPort)
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial grpc health endpoint: %w", err)
	}
	cleanup := func() { _ = conn.Close() }

	gw := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	if err := restHandler.Register(gw); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("register rest routes: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(connectrpc.NewLearningServiceHandler(svc,
		connect.WithInterceptors(Logger(logger), connectrpc.NewAuthInterceptor(authn)),
	))
	mux.Handle("/metrics", recorder.Handler())
	mux.Handle("/", RequestLogger(logger, gw))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: withCORS(cfg.Server.CORSOrigins, mux),
	}

	return &Server{
		config:     cfg,
		grpcServer: grpcServer,
		health:     hs,
		httpServer: httpServer,
		logger:     logger,
	}, cleanup, nil
}

// withCORS opens REST and Connect routes to browser origins and accepts h2c.
func withCORS(origins []string, h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: append(connectcors.AllowedMethods(), http.MethodDelete),
		AllowedHeaders: append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders: connectcors.ExposedHeaders(),
	})
	return h2c.NewHandler(c.Handler(h), &http2.Server{})
}

// Handler exposes the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// StartGRPC starts the gRPC server
func (s *Server) StartGRPC() error {
	addr := fmt.Sprintf(":%d", s.config.Server.GRPCPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.logger.Infof("gRPC server starting on %s", addr)

	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// StartHTTP starts the HTTP server
func (s *Server) StartHTTP() error {
	s.logger.Infof("HTTP server starting on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.health.Shutdown()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("Failed to shutdown HTTP server: %v", err)
	}

	s.grpcServer.GracefulStop()

	s.logger.Info("Server shutdown complete")
	return nil
}
