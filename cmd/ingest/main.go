// Command ingest runs the ingestion pipeline once over a data directory and
// prints the run summary. Useful for initial corpus loads without going
// through the queue.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mfedorov/legalrag/internal/bootstrap"
	"github.com/mfedorov/legalrag/internal/config"
	"github.com/mfedorov/legalrag/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("ingest", cfg.LogLevel))

	dataDir := cfg.DataDir
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	summary, err := app.IngestUC.IngestDirectory(ctx, dataDir)
	if err != nil {
		log.Fatalf("ingestion error: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	os.Stdout.Write(append(out, '\n'))
}
