package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/document-ai-agent/internal/adapters/http"
	"github.com/kirillkom/document-ai-agent/internal/bootstrap"
	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/observability/logging"
	"github.com/kirillkom/document-ai-agent/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("docai-api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("docai-api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		WithQueue: true,
		Observer:  httpMetrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("bootstrap.failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.Sessions.RunJanitor(ctx, cfg.SessionSweepInterval)

	router := httpadapter.NewRouter(app.PipelineUC, app.JobSubmitter(), app.OCR, app.Exporter, httpadapter.Options{
		APIKey:          cfg.APIKey,
		RateLimitRPS:    cfg.APIRateLimitRPS,
		RateLimitBurst:  cfg.APIRateLimitBurst,
		MaxInFlight:     cfg.APIMaxInFlight,
		MaxUploadBytes:  cfg.APIMaxUploadBytes,
		ValidateRequest: cfg.APIValidateSpec,
		Logger:          logger,
		Metrics:         httpMetrics,
	})
	handler, err := router.Handler()
	if err != nil {
		logger.Error("router.init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Error("api.listen_failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	go func() {
		logger.Info("api.listening", "port", cfg.APIPort, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api.server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api.shutdown_failed", "error", err)
	}
}
