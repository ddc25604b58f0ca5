package ports

import (
	"context"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

// DocumentParser turns source files into page-segmented plain text.
type DocumentParser interface {
	ParseFile(path string) (*domain.ParsedDocument, error)
	ParseDirectory(dataDir string) ([]*domain.ParsedDocument, []error)
}

// Embedder builds vectors for chunks and query text, order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a single text completion from a prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// StoredChunk is one record read back from the vector store.
type StoredChunk struct {
	ID       string
	Document string
	Metadata domain.ChunkMetadata
}

// VectorStore is the content-addressable chunk store. Metadata filters are
// limited to substring containment on a single flat field, which is why
// list-valued metadata is comma-joined at this boundary.
type VectorStore interface {
	Upsert(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error
	Query(ctx context.Context, embedding []float32, n int) ([]StoredChunk, error)
	GetByMetadataContains(ctx context.Context, field, value string, limit int) ([]StoredChunk, error)
	GetAll(ctx context.Context) ([]StoredChunk, error)
	Count(ctx context.Context) (int, error)
	// SetSuperseded flips the superseded flag on the given chunks without
	// touching their vectors.
	SetSuperseded(ctx context.Context, ids []string) error
}

// LexicalIndex ranks stored chunks by keyword relevance. Implementations are
// built lazily from the store and invalidated as a unit after re-ingestion;
// concurrent readers must see either the old or the new index, never a
// partially built one.
type LexicalIndex interface {
	Rank(ctx context.Context, queryText string, n int) ([]StoredChunk, error)
	Invalidate()
}

// IngestRegistry keeps the relational audit trail: one row per ingestion
// run, one row per retired statute.
type IngestRegistry interface {
	RecordRun(ctx context.Context, summary domain.IngestSummary) error
	RecordSuperseded(ctx context.Context, statuteNumber string, chunksRetired int) error
}

// MessageQueue carries ingest requests from the API to the worker.
type MessageQueue interface {
	PublishIngestRequested(ctx context.Context, dataDir string) error
	SubscribeIngestRequested(ctx context.Context, handler func(context.Context, string) error) error
}
