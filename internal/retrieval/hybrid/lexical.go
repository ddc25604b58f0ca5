package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mfedorov/legalrag/internal/core/ports"
)

// LexicalIndex is a BM25 index over the whole chunk store, built lazily on
// first use and rebuilt after Invalidate. The store snapshot and the corpus
// statistics are swapped together under the write lock, so readers never see
// a half-built index.
type LexicalIndex struct {
	store ports.VectorStore

	mu     sync.RWMutex
	corpus *bm25Corpus
	chunks []ports.StoredChunk
}

var _ ports.LexicalIndex = (*LexicalIndex)(nil)

func NewLexicalIndex(store ports.VectorStore) *LexicalIndex {
	return &LexicalIndex{store: store}
}

// Rank returns up to n chunks by descending BM25 score against the query
// text. Chunks scoring zero or below are excluded; an empty store yields an
// empty result without error.
func (x *LexicalIndex) Rank(ctx context.Context, queryText string, n int) ([]ports.StoredChunk, error) {
	corpus, chunks, err := x.indexSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if corpus == nil {
		return nil, nil
	}

	scores := corpus.scores(tokenizeForBM25(queryText))
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	var out []ports.StoredChunk
	for _, idx := range order {
		if len(out) >= n {
			break
		}
		if scores[idx] <= 0 {
			break
		}
		out = append(out, chunks[idx])
	}
	return out, nil
}

// Invalidate drops the cached index. The next Rank rebuilds from the store.
func (x *LexicalIndex) Invalidate() {
	x.mu.Lock()
	x.corpus = nil
	x.chunks = nil
	x.mu.Unlock()
	slog.Info("lexical_index_invalidated")
}

func (x *LexicalIndex) indexSnapshot(ctx context.Context) (*bm25Corpus, []ports.StoredChunk, error) {
	x.mu.RLock()
	corpus, chunks := x.corpus, x.chunks
	x.mu.RUnlock()
	if corpus != nil {
		return corpus, chunks, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.corpus != nil {
		return x.corpus, x.chunks, nil
	}

	all, err := x.store.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("lexical index build: %w", err)
	}
	if len(all) == 0 {
		slog.Warn("lexical_index_empty_corpus")
		return nil, nil, nil
	}

	documents := make([]string, len(all))
	for i, c := range all {
		documents[i] = c.Document
	}
	x.corpus = newBM25Corpus(documents)
	x.chunks = all

	slog.Info("lexical_index_built", "documents", len(all))
	return x.corpus, x.chunks, nil
}
