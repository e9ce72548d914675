package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/bootstrap"
	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/observability/logging"
	"github.com/kirillkom/document-ai-agent/internal/observability/metrics"
)

const (
	serviceName = "docai-worker"
	jobTimeout  = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		WithQueue: true,
		Observer:  workerMetrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("bootstrap.failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker.metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker.subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobs(ctx, func(handlerCtx context.Context, job domain.BatchJob) error {
		if !job.CreatedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(job.CreatedAt))
		}
		workerMetrics.StartJob()
		started := time.Now()

		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()
		report, err := app.BatchUC.Run(jobCtx, job)
		workerMetrics.FinishJob(serviceName, time.Since(started), err)
		if err != nil {
			return err
		}
		logger.Info("worker.job.done", "job_id", job.JobID, "doc_type", report.DocType, "fields", len(report.Fields))
		return nil
	})
	if err != nil {
		logger.Error("worker.subscribe_failed", "error", err)
		os.Exit(1)
	}
}
