package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
	"github.com/mfedorov/legalrag/internal/ingestion/chunking"
	"github.com/mfedorov/legalrag/internal/ingestion/metadata"
	"github.com/mfedorov/legalrag/internal/ingestion/normalizer"
)

// IngestOptions carries the chunking and embedding knobs for one pipeline
// instance.
type IngestOptions struct {
	TargetTokens    int
	OverlapFraction float64
	BatchSize       int
}

type IngestUseCase struct {
	parser   ports.DocumentParser
	embedder ports.Embedder
	store    ports.VectorStore
	lexical  ports.LexicalIndex
	registry ports.IngestRegistry
	opts     IngestOptions
}

var _ ports.IngestService = (*IngestUseCase)(nil)

func NewIngestUseCase(
	parser ports.DocumentParser,
	embedder ports.Embedder,
	store ports.VectorStore,
	lexical ports.LexicalIndex,
	registry ports.IngestRegistry,
	opts IngestOptions,
) *IngestUseCase {
	if opts.TargetTokens <= 0 {
		opts.TargetTokens = 1000
	}
	if opts.OverlapFraction <= 0 {
		opts.OverlapFraction = 0.15
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &IngestUseCase{
		parser:   parser,
		embedder: embedder,
		store:    store,
		lexical:  lexical,
		registry: registry,
		opts:     opts,
	}
}

// IngestDirectory runs the full pipeline over dataDir: parse, normalize,
// chunk, extract metadata, embed, and upsert. Per-file parse failures skip
// the file; an embedding or store failure aborts the run so the collection
// never ends up half-refreshed without anyone noticing.
func (uc *IngestUseCase) IngestDirectory(ctx context.Context, dataDir string) (*domain.IngestSummary, error) {
	start := time.Now()

	documents, failures := uc.parser.ParseDirectory(dataDir)
	if len(documents) == 0 {
		slog.Warn("ingest_no_documents", "data_dir", dataDir, "failed", len(failures))
		return &domain.IngestSummary{DocumentsFailed: len(failures)}, nil
	}

	var allChunks []domain.Chunk
	var allMetadata []domain.ChunkMetadata
	for _, doc := range documents {
		normalized := normalizer.Normalize(doc.FullText)
		chunks := chunking.ChunkDocument(doc, normalized, uc.opts.TargetTokens, uc.opts.OverlapFraction)
		for _, chunk := range chunks {
			allChunks = append(allChunks, chunk)
			allMetadata = append(allMetadata, metadata.Extract(chunk, doc))
		}
	}
	slog.Info("ingest_chunked", "documents", len(documents), "chunks", len(allChunks))

	if err := uc.batchUpsert(ctx, allChunks, allMetadata); err != nil {
		return nil, err
	}

	// The keyword index snapshot predates this run's chunks.
	uc.lexical.Invalidate()

	collectionTotal, err := uc.store.Count(ctx)
	if err != nil {
		slog.Warn("ingest_count_failed", "error", err)
		collectionTotal = 0
	}

	summary := &domain.IngestSummary{
		DocumentsParsed: len(documents),
		DocumentsFailed: len(failures),
		TotalChunks:     len(allChunks),
		CollectionTotal: collectionTotal,
		ElapsedSeconds:  math.Round(time.Since(start).Seconds()*100) / 100,
	}

	if err := uc.registry.RecordRun(ctx, *summary); err != nil {
		// The collection is already updated; losing the audit row is not
		// worth failing the run over.
		slog.Error("ingest_record_run_failed", "error", err)
	}

	slog.Info("ingest_complete",
		"documents_parsed", summary.DocumentsParsed,
		"documents_failed", summary.DocumentsFailed,
		"total_chunks", summary.TotalChunks,
		"collection_total", summary.CollectionTotal,
		"elapsed_seconds", summary.ElapsedSeconds,
	)
	return summary, nil
}

// batchUpsert embeds and stores chunks in fixed-size batches. The embedding
// text is the context header joined with the chunk body, and that combined
// text is also what the store persists, so search hits carry their
// breadcrumbs.
func (uc *IngestUseCase) batchUpsert(ctx context.Context, chunks []domain.Chunk, metadatas []domain.ChunkMetadata) error {
	batchSize := uc.opts.BatchSize
	totalBatches := (len(chunks) + batchSize - 1) / batchSize

	for batch := 0; batch < totalBatches; batch++ {
		startIdx := batch * batchSize
		endIdx := min(startIdx+batchSize, len(chunks))

		ids := make([]string, 0, endIdx-startIdx)
		texts := make([]string, 0, endIdx-startIdx)
		for i := startIdx; i < endIdx; i++ {
			ids = append(ids, metadatas[i].DocID)
			texts = append(texts, embeddingText(chunks[i]))
		}

		embeddings, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d/%d: %w", batch+1, totalBatches, err)
		}
		if err := uc.store.Upsert(ctx, ids, texts, embeddings, metadatas[startIdx:endIdx]); err != nil {
			return fmt.Errorf("upsert batch %d/%d: %w", batch+1, totalBatches, err)
		}
		slog.Info("ingest_batch_upserted", "batch", batch+1, "total_batches", totalBatches, "chunks", endIdx-startIdx)
	}
	return nil
}

func embeddingText(chunk domain.Chunk) string {
	if chunk.ContextHeader == "" {
		return chunk.Text
	}
	return chunk.ContextHeader + "\n\n" + chunk.Text
}

// MarkSuperseded retires every stored chunk citing the given statute number
// and records the retirement. Vectors stay in place; retrieval drops flagged
// chunks during boosting and context assembly.
func (uc *IngestUseCase) MarkSuperseded(ctx context.Context, statuteNumber string) (int, error) {
	chunks, err := uc.store.GetByMetadataContains(ctx, "statute_numbers", statuteNumber, 0)
	if err != nil {
		return 0, fmt.Errorf("find chunks for statute %s: %w", statuteNumber, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	if err := uc.store.SetSuperseded(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark chunks superseded: %w", err)
	}

	// The cached keyword index still carries the old superseded flags.
	uc.lexical.Invalidate()

	if err := uc.registry.RecordSuperseded(ctx, statuteNumber, len(ids)); err != nil {
		slog.Error("record_superseded_failed", "statute", statuteNumber, "error", err)
	}

	slog.Info("statute_superseded", "statute", statuteNumber, "chunks_retired", len(ids))
	return len(ids), nil
}
