package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcapi "sense-adaptive-core/internal/api/grpc"
	"sense-adaptive-core/internal/app"
	httpapi "sense-adaptive-core/internal/http"
	"sense-adaptive-core/internal/observability"
	"sense-adaptive-core/internal/observability/metrics"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP, websocket and gRPC service",
	Long: `Run the service until SIGINT or SIGTERM.

Listeners:
  HTTP_PORT     REST API and /v1/ws websocket sessions (default 8080)
  GRPC_PORT     SenseCore gRPC service and health (default 50051)
  METRICS_ADDR  Prometheus metrics and probes (default :9090)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := globalConfig
	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	metricsServer := observability.NewServer(cfg.Observability.MetricsAddr, application.Checks())
	metricsServer.Start()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(metrics.DefaultMetrics)),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor(metrics.DefaultMetrics)),
	)
	healthServer := grpcapi.Register(grpcServer, grpcapi.NewServer(
		application.SenseConfig(application.Scorer.Thresholds()),
		application.Interpreter,
		application.Scorer,
		application.Validator,
		application.Publisher,
	))
	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("port", cfg.Service.GRPCPort).Msg("gRPC server started")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	if err := application.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err = <-errCh:
		log.Error().Err(err).Msg("Listener failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(grpcapi.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	if herr := httpServer.Shutdown(shutdownCtx); herr != nil {
		log.Warn().Err(herr).Msg("HTTP shutdown incomplete")
	}
	grpcServer.GracefulStop()
	application.Shutdown()
	if merr := metricsServer.Shutdown(shutdownCtx); merr != nil {
		log.Warn().Err(merr).Msg("Metrics shutdown incomplete")
	}
	log.Info().Msg("Sense core stopped")
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
