// Package hybrid fuses semantic vector search with BM25 keyword ranking
// using reciprocal rank fusion.
package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
)

// Searcher runs the two retrieval legs and merges them. The semantic leg
// embeds the expanded query; the lexical leg ranks the corrected text so
// keyword matching is not diluted by appended synonyms.
type Searcher struct {
	embedder ports.Embedder
	store    ports.VectorStore
	lexical  ports.LexicalIndex
}

func NewSearcher(embedder ports.Embedder, store ports.VectorStore, lexical ports.LexicalIndex) *Searcher {
	return &Searcher{embedder: embedder, store: store, lexical: lexical}
}

// Search returns up to n fused results sorted by descending RRF score. A
// failure in either leg fails the search; an empty store is not a failure
// and simply contributes nothing to the lexical ranking.
func (s *Searcher) Search(ctx context.Context, query domain.EnhancedQuery, n int) ([]domain.SearchResult, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, query.SemanticQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	semantic, err := s.store.Query(ctx, embedding, n)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	lookup := make(map[string]ports.StoredChunk, len(semantic))
	semanticIDs := make([]string, len(semantic))
	for i, c := range semantic {
		semanticIDs[i] = c.ID
		lookup[c.ID] = c
	}

	lexical, err := s.lexical.Rank(ctx, query.CorrectedText, n)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	lexicalIDs := make([]string, len(lexical))
	for i, c := range lexical {
		lexicalIDs[i] = c.ID
		if _, ok := lookup[c.ID]; !ok {
			lookup[c.ID] = c
		}
	}

	fused := reciprocalRankFusion(semanticIDs, lexicalIDs)

	results := make([]domain.SearchResult, 0, len(fused))
	for id, score := range fused {
		chunk, ok := lookup[id]
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:       id,
			Document: chunk.Document,
			Metadata: chunk.Metadata,
			RRFScore: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > n {
		results = results[:n]
	}

	slog.Info("hybrid_search",
		"semantic", len(semanticIDs),
		"lexical", len(lexicalIDs),
		"fused", len(results),
	)
	return results, nil
}
