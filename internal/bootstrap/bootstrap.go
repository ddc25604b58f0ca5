// Package bootstrap wires configuration, infrastructure, and use cases into
// a runnable application graph shared by the api, worker, and ingest
// binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/mfedorov/legalrag/internal/config"
	"github.com/mfedorov/legalrag/internal/core/ports"
	"github.com/mfedorov/legalrag/internal/core/usecase"
	"github.com/mfedorov/legalrag/internal/infrastructure/llm/ollama"
	"github.com/mfedorov/legalrag/internal/infrastructure/parser"
	"github.com/mfedorov/legalrag/internal/infrastructure/queue/nats"
	"github.com/mfedorov/legalrag/internal/infrastructure/repository/postgres"
	"github.com/mfedorov/legalrag/internal/infrastructure/resilience"
	"github.com/mfedorov/legalrag/internal/infrastructure/vector/qdrant"
	"github.com/mfedorov/legalrag/internal/retrieval/contextwin"
	"github.com/mfedorov/legalrag/internal/retrieval/hybrid"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	IngestUC ports.IngestService
	QueryUC  ports.QueryService
	HealthUC ports.HealthService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	registry := postgres.NewRegistry(db)
	if err := registry.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	runner := resilience.NewRunner(resilience.DefaultPolicy())

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, runner)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, ollama.Options{
		GenModel:               cfg.OllamaGenModel,
		EmbedModel:             cfg.OllamaEmbedModel,
		Temperature:            cfg.OllamaTemperature,
		EmbedRequestsPerSecond: cfg.OllamaEmbedRPS,
	}, runner)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	store := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	lexical := hybrid.NewLexicalIndex(store)
	searcher := hybrid.NewSearcher(embedder, store, lexical)
	builder := contextwin.NewBuilder(store, cfg.ContextTokenBudget)

	docParser := parser.New()

	ingestUC := usecase.NewIngestUseCase(docParser, embedder, store, lexical, registry, usecase.IngestOptions{
		TargetTokens:    cfg.ChunkTargetTokens,
		OverlapFraction: cfg.ChunkOverlapFraction,
		BatchSize:       cfg.EmbeddingBatchSize,
	})
	queryUC := usecase.NewQueryUseCase(searcher, builder, generator, cfg.SearchTopK)
	healthUC := usecase.NewHealthUseCase(store)

	return &App{
		Config: cfg,

		Queue:    queue,
		IngestUC: ingestUC,
		QueryUC:  queryUC,
		HealthUC: healthUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
