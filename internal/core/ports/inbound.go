package ports

import (
	"context"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

// QueryService answers a legal question through the full retrieval and
// generation pipeline.
type QueryService interface {
	Answer(ctx context.Context, query string) (*domain.Answer, error)
	Search(ctx context.Context, query string, nResults int) ([]domain.SearchResult, domain.EnhancedQuery, error)
}

// IngestService runs the ingestion pipeline over a data directory and
// handles out-of-band retirement of superseded statutes.
type IngestService interface {
	IngestDirectory(ctx context.Context, dataDir string) (*domain.IngestSummary, error)
	MarkSuperseded(ctx context.Context, statuteNumber string) (int, error)
}

// HealthService reports service health without ever returning an error; an
// unreachable vector store is a degraded state, not a failure.
type HealthService interface {
	Check(ctx context.Context) (status string, collectionCount int)
}
