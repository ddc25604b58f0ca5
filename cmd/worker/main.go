package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mfedorov/legalrag/internal/bootstrap"
	"github.com/mfedorov/legalrag/internal/config"
	"github.com/mfedorov/legalrag/internal/observability/logging"
	"github.com/mfedorov/legalrag/internal/observability/metrics"
)

const ingestTimeout = 30 * time.Minute

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeIngestRequested(ctx, func(handlerCtx context.Context, dataDir string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, ingestTimeout)
		defer cancel()

		workerMetrics.StartIngest()
		start := time.Now()
		summary, runErr := app.IngestUC.IngestDirectory(runCtx, dataDir)
		workerMetrics.FinishIngest("worker", time.Since(start), runErr)
		if runErr != nil {
			return runErr
		}
		workerMetrics.AddChunksEmbedded("worker", summary.TotalChunks)
		workerMetrics.AddParseFailures("worker", summary.DocumentsFailed)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
