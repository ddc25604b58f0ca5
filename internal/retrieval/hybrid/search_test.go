package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
)

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeStore struct {
	queryResults []ports.StoredChunk
	allChunks    []ports.StoredChunk
	getAllCalls  int
}

func (f *fakeStore) Upsert(context.Context, []string, []string, [][]float32, []domain.ChunkMetadata) error {
	return nil
}

func (f *fakeStore) Query(context.Context, []float32, int) ([]ports.StoredChunk, error) {
	return f.queryResults, nil
}

func (f *fakeStore) GetByMetadataContains(context.Context, string, string, int) ([]ports.StoredChunk, error) {
	return nil, nil
}

func (f *fakeStore) GetAll(context.Context) ([]ports.StoredChunk, error) {
	f.getAllCalls++
	return f.allChunks, nil
}

func (f *fakeStore) Count(context.Context) (int, error) { return len(f.allChunks), nil }

func (f *fakeStore) SetSuperseded(context.Context, []string) error { return nil }

type failingLexical struct{}

func (failingLexical) Rank(context.Context, string, int) ([]ports.StoredChunk, error) {
	return nil, errors.New("index unavailable")
}
func (failingLexical) Invalidate() {}

func chunk(id, text string) ports.StoredChunk {
	return ports.StoredChunk{ID: id, Document: text, Metadata: domain.ChunkMetadata{DocID: id}}
}

func TestReciprocalRankFusion(t *testing.T) {
	scores := reciprocalRankFusion(
		[]string{"a", "b", "c"},
		[]string{"a", "c"},
	)

	// Rank 1 in both lists: 1/61 + 1/61.
	assert.InDelta(t, 2.0/61.0, scores["a"], 1e-12)
	// Rank 2 semantic only.
	assert.InDelta(t, 1.0/62.0, scores["b"], 1e-12)
	// Rank 3 semantic + rank 2 lexical.
	assert.InDelta(t, 1.0/63.0+1.0/62.0, scores["c"], 1e-12)
	assert.Greater(t, scores["a"], scores["c"])
}

func TestBM25RanksKeywordMatches(t *testing.T) {
	corpus := newBM25Corpus([]string{
		"operating while intoxicated penalties and revocation",
		"theft of movable property from a retail store",
		"criminal trespass to a dwelling",
	})

	scores := corpus.scores(tokenizeForBM25("retail theft"))
	require.Len(t, scores, 3)
	assert.Greater(t, scores[1], scores[0])
	assert.Greater(t, scores[1], scores[2])
}

func TestLexicalIndexEmptyStore(t *testing.T) {
	idx := NewLexicalIndex(&fakeStore{})
	got, err := idx.Rank(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLexicalIndexBuildsOnceAndRebuildsAfterInvalidate(t *testing.T) {
	store := &fakeStore{allChunks: []ports.StoredChunk{
		chunk("c1", "retail theft statute"),
		chunk("c2", "traffic signal violations"),
	}}
	idx := NewLexicalIndex(store)

	_, err := idx.Rank(context.Background(), "theft", 10)
	require.NoError(t, err)
	_, err = idx.Rank(context.Background(), "traffic", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getAllCalls, "index rebuilt without invalidation")

	idx.Invalidate()
	_, err = idx.Rank(context.Background(), "theft", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.getAllCalls)
}

func TestLexicalIndexExcludesZeroScores(t *testing.T) {
	store := &fakeStore{allChunks: []ports.StoredChunk{
		chunk("c1", "retail theft statute"),
		chunk("c2", "traffic signal violations"),
		chunk("c3", "criminal trespass to dwellings"),
	}}
	idx := NewLexicalIndex(store)

	got, err := idx.Rank(context.Background(), "theft", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestSearchFusesBothLegs(t *testing.T) {
	theft := chunk("c1", "retail theft statute text")
	traffic := chunk("c2", "traffic signal violation text")
	trespass := chunk("c3", "criminal trespass dwelling text")
	store := &fakeStore{
		queryResults: []ports.StoredChunk{traffic, theft, trespass},
		allChunks:    []ports.StoredChunk{theft, traffic, trespass},
	}
	s := NewSearcher(&fakeEmbedder{}, store, NewLexicalIndex(store))

	results, err := s.Search(context.Background(), domain.EnhancedQuery{
		SemanticQuery: "retail theft shoplifting",
		CorrectedText: "retail theft",
	}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// c1 is rank 2 semantic + rank 1 lexical; c2 is rank 1 semantic only.
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0/62.0+1.0/61.0, results[0].RRFScore, 1e-12)
	assert.Positive(t, results[1].RRFScore)
}

func TestSearchFailsWhenLexicalFails(t *testing.T) {
	store := &fakeStore{queryResults: []ports.StoredChunk{chunk("c1", "text")}}
	s := NewSearcher(&fakeEmbedder{}, store, failingLexical{})

	results, err := s.Search(context.Background(), domain.EnhancedQuery{
		SemanticQuery: "q", CorrectedText: "q",
	}, 10)
	require.Error(t, err)
	assert.ErrorContains(t, err, "lexical search")
	assert.Nil(t, results)
}

func TestSearchFailsWhenEmbeddingFails(t *testing.T) {
	store := &fakeStore{}
	s := NewSearcher(&fakeEmbedder{err: errors.New("model offline")}, store, NewLexicalIndex(store))

	_, err := s.Search(context.Background(), domain.EnhancedQuery{SemanticQuery: "q"}, 10)
	require.Error(t, err)
}

func TestSearchTruncatesToN(t *testing.T) {
	var chunks []ports.StoredChunk
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		chunks = append(chunks, chunk(id, "shared token "+id))
	}
	store := &fakeStore{queryResults: chunks, allChunks: chunks}
	s := NewSearcher(&fakeEmbedder{}, store, NewLexicalIndex(store))

	results, err := s.Search(context.Background(), domain.EnhancedQuery{
		SemanticQuery: "shared", CorrectedText: "shared",
	}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchResultScoreFallback(t *testing.T) {
	r := domain.SearchResult{RRFScore: 0.03}
	assert.Equal(t, 0.03, r.Score())
	r.BoostedScore = 0.045
	assert.Equal(t, 0.045, r.Score())
}
