package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
	"github.com/mfedorov/legalrag/internal/generation"
	"github.com/mfedorov/legalrag/internal/retrieval/boost"
	"github.com/mfedorov/legalrag/internal/retrieval/queryexpand"
)

const noResultsAnswer = "I could not find relevant information in the available legal documents " +
	"to answer your question. Please try rephrasing or ask about a specific " +
	"Wisconsin statute or policy."

// Retriever runs fused semantic plus keyword search over the corpus.
type Retriever interface {
	Search(ctx context.Context, query domain.EnhancedQuery, n int) ([]domain.SearchResult, error)
}

// ContextBuilder assembles the token-budgeted context window from ranked
// results.
type ContextBuilder interface {
	Build(ctx context.Context, ranked []domain.SearchResult) domain.ContextWindow
}

type QueryUseCase struct {
	retriever Retriever
	builder   ContextBuilder
	generator ports.Generator
	topK      int
}

var _ ports.QueryService = (*QueryUseCase)(nil)

func NewQueryUseCase(retriever Retriever, builder ContextBuilder, generator ports.Generator, topK int) *QueryUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &QueryUseCase{
		retriever: retriever,
		builder:   builder,
		generator: generator,
		topK:      topK,
	}
}

// Answer runs the full pipeline: enhance, search, boost, build context,
// generate, format. An empty retrieval short-circuits with a fixed answer
// instead of letting the model improvise without sources.
func (uc *QueryUseCase) Answer(ctx context.Context, query string) (*domain.Answer, error) {
	start := time.Now()

	enhanced := queryexpand.Enhance(query)

	results, err := uc.retriever.Search(ctx, enhanced, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	boosted := boost.Apply(results, enhanced)
	if len(boosted) == 0 {
		slog.Info("query_no_results", "query", query)
		return &domain.Answer{
			Text:            noResultsAnswer + "\n\n" + generation.Disclaimer,
			Sources:         []domain.FormattedSource{},
			ConfidenceScore: 0.0,
			Flags:           domain.ResponseFlags{LowConfidence: true},
			Disclaimer:      generation.Disclaimer,
		}, nil
	}

	window := uc.builder.Build(ctx, boosted)

	userPrompt := generation.BuildUserPrompt(query, window.ContextText, window.Sources)
	rawResponse, err := uc.generator.Generate(ctx, generation.SystemPrompt(), userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	answer := generation.FormatResponse(rawResponse, boosted, enhanced, query)

	slog.Info("query_answered",
		"results", len(boosted),
		"context_tokens", window.TotalTokens,
		"cross_refs", len(window.CrossRefsFollowed),
		"confidence", answer.ConfidenceScore,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &answer, nil
}

// Search runs retrieval only, for debugging and tuning.
func (uc *QueryUseCase) Search(ctx context.Context, query string, nResults int) ([]domain.SearchResult, domain.EnhancedQuery, error) {
	if nResults <= 0 {
		nResults = uc.topK
	}

	enhanced := queryexpand.Enhance(query)
	results, err := uc.retriever.Search(ctx, enhanced, nResults)
	if err != nil {
		return nil, enhanced, fmt.Errorf("hybrid search: %w", err)
	}
	return boost.Apply(results, enhanced), enhanced, nil
}
