package generation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

func res(id string, score float64, meta domain.ChunkMetadata) domain.SearchResult {
	return domain.SearchResult{ID: id, Document: "text for " + id, Metadata: meta, RRFScore: score}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt(
		"When can I arrest for OWI?",
		"346.63 Operating under influence of intoxicant.",
		[]domain.SourceRef{
			{Title: "ch346", ContextHeader: "Chapter 346 > 346.63", SourceType: "statute"},
			{Title: ""},
		},
	)

	assert.Contains(t, prompt, "CONTEXT:\n---\n346.63 Operating under influence")
	assert.Contains(t, prompt, "1. ch346 (Chapter 346 > 346.63) [statute]")
	assert.Contains(t, prompt, "2. Unknown")
	assert.Contains(t, prompt, "USER QUESTION: When can I arrest for OWI?")
}

func TestBuildUserPromptNoSources(t *testing.T) {
	prompt := BuildUserPrompt("q", "", nil)
	assert.Contains(t, prompt, "AVAILABLE SOURCES:\n  (none)")
}

func TestCheckUseOfForce(t *testing.T) {
	assert.True(t, CheckUseOfForce("When may I use my taser?", ""))
	assert.True(t, CheckUseOfForce("q", "Deadly force is permitted only when..."))
	assert.False(t, CheckUseOfForce("retail theft penalties", "Theft is a misdemeanor."))
}

func TestCheckOutdatedPossible(t *testing.T) {
	oldYear := time.Now().Year() - 11
	recent := time.Now().Year() - 2

	assert.True(t, CheckOutdatedPossible([]domain.ChunkMetadata{
		{SourceFile: fmt.Sprintf("/data/statutes/ch346_%d.pdf", oldYear)},
	}))
	assert.False(t, CheckOutdatedPossible([]domain.ChunkMetadata{
		{SourceFile: fmt.Sprintf("/data/statutes/ch346_%d.pdf", recent)},
	}))
	assert.False(t, CheckOutdatedPossible([]domain.ChunkMetadata{
		{SourceFile: "/data/statutes/ch346.pdf"},
	}))
	assert.False(t, CheckOutdatedPossible(nil))
}

func TestCheckJurisdictionNote(t *testing.T) {
	local := []domain.ChunkMetadata{{Jurisdiction: domain.JurisdictionLocal}}
	training := []domain.ChunkMetadata{{SourceType: domain.SourceTraining}}
	state := []domain.ChunkMetadata{{Jurisdiction: domain.JurisdictionState, SourceType: domain.SourceStatute}}

	assert.True(t, CheckJurisdictionNote("when can I search a car", local))
	assert.True(t, CheckJurisdictionNote("when can I search a car", training))
	assert.False(t, CheckJurisdictionNote("when can I search a car", state))
	// Query that names a jurisdiction suppresses the note.
	assert.False(t, CheckJurisdictionNote("madison pursuit rules", local))
}

func TestBuildSafetyAddendum(t *testing.T) {
	s := BuildSafety("vehicle pursuit policy", "answer", []domain.ChunkMetadata{
		{Jurisdiction: domain.JurisdictionState},
	})

	assert.True(t, s.UseOfForceCaution)
	assert.Contains(t, s.Addendum, "use of force topics")

	s = BuildSafety("retail theft", "Theft is covered by statute.", nil)
	assert.False(t, s.UseOfForceCaution)
	assert.Empty(t, s.Addendum)
}

func TestComputeConfidenceEmptyResults(t *testing.T) {
	score, low := ComputeConfidence(nil, domain.EnhancedQuery{})
	assert.Equal(t, 0.0, score)
	assert.True(t, low)
}

func TestComputeConfidenceSingleStrongResult(t *testing.T) {
	results := []domain.SearchResult{
		res("a", 2.0/60.6, domain.ChunkMetadata{SourceFile: "/data/a.pdf"}),
	}
	score, low := ComputeConfidence(results, domain.EnhancedQuery{})

	// base 0.20 + top-score 0.30 (saturated) + 1 distinct file 0.10.
	assert.InDelta(t, 0.60, score, 1e-9)
	assert.False(t, low)
}

func TestComputeConfidenceExactKeywordMatch(t *testing.T) {
	results := []domain.SearchResult{
		res("a", 0.0165, domain.ChunkMetadata{
			SourceFile:     "/data/a.pdf",
			StatuteNumbers: []string{"346.63"},
		}),
	}
	withMatch, _ := ComputeConfidence(results, domain.EnhancedQuery{ExactKeywords: []string{"346.63"}})
	without, _ := ComputeConfidence(results, domain.EnhancedQuery{})

	assert.InDelta(t, 0.25, withMatch-without, 1e-9)
}

func TestComputeConfidenceSynonymFallback(t *testing.T) {
	results := []domain.SearchResult{
		{ID: "a", Document: "Retail theft is committed when...", Metadata: domain.ChunkMetadata{SourceFile: "/data/a.pdf"}, RRFScore: 0.0165},
	}
	withSyn, _ := ComputeConfidence(results, domain.EnhancedQuery{Synonyms: []string{"retail theft"}})
	without, _ := ComputeConfidence(results, domain.EnhancedQuery{})

	assert.InDelta(t, 0.25, withSyn-without, 1e-9)
}

func TestComputeConfidenceDistinctSourcesCapped(t *testing.T) {
	var results []domain.SearchResult
	for i := 0; i < 5; i++ {
		results = append(results, res(fmt.Sprintf("r%d", i), 0.01, domain.ChunkMetadata{
			SourceFile: fmt.Sprintf("/data/file%d.pdf", i),
		}))
	}
	fiveFiles, _ := ComputeConfidence(results, domain.EnhancedQuery{})

	for i := range results {
		results[i].Metadata.SourceFile = "/data/same.pdf"
	}
	oneFile, _ := ComputeConfidence(results, domain.EnhancedQuery{})

	// Five distinct files cap at +0.30; one file earns +0.10.
	assert.InDelta(t, 0.20, fiveFiles-oneFile, 1e-9)
}

func TestComputeConfidenceRange(t *testing.T) {
	var results []domain.SearchResult
	for i := 0; i < 5; i++ {
		results = append(results, domain.SearchResult{
			ID:           fmt.Sprintf("r%d", i),
			Document:     "retail theft text",
			Metadata:     domain.ChunkMetadata{SourceFile: fmt.Sprintf("/f%d", i), StatuteNumbers: []string{"943.50"}},
			RRFScore:     0.033,
			BoostedScore: 0.05,
		})
	}
	score, low := ComputeConfidence(results, domain.EnhancedQuery{ExactKeywords: []string{"943.50"}})

	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.False(t, low)
}

func TestFormatResponseCapsSourcesAtThree(t *testing.T) {
	var results []domain.SearchResult
	for i := 0; i < 6; i++ {
		results = append(results, res(fmt.Sprintf("r%d", i), 0.02, domain.ChunkMetadata{
			Title:      fmt.Sprintf("doc%d", i),
			SourceFile: fmt.Sprintf("/data/doc%d.pdf", i),
		}))
	}
	a := FormatResponse("The answer.", results, domain.EnhancedQuery{}, "plain question")

	require.Len(t, a.Sources, 3)
	assert.Equal(t, "doc0", a.Sources[0].Title)
	assert.Equal(t, Disclaimer, a.Disclaimer)
}

func TestFormatResponseTruncatesDocuments(t *testing.T) {
	long := strings.Repeat("a", 900)
	results := []domain.SearchResult{{ID: "r", Document: long, RRFScore: 0.02, Metadata: domain.ChunkMetadata{Title: "t"}}}

	a := FormatResponse("answer", results, domain.EnhancedQuery{}, "q")
	require.Len(t, a.Sources, 1)
	assert.Len(t, a.Sources[0].Document, 500)
}

func TestFormatResponseTitleFallsBackToFilename(t *testing.T) {
	results := []domain.SearchResult{
		res("r", 0.02, domain.ChunkMetadata{SourceFile: "/data/statutes/ch346.pdf"}),
	}
	a := FormatResponse("answer", results, domain.EnhancedQuery{}, "q")

	require.Len(t, a.Sources, 1)
	assert.Equal(t, "ch346", a.Sources[0].Title)
}

func TestFormatResponseEmptyResults(t *testing.T) {
	a := FormatResponse("Insufficient information available in the provided sources", nil, domain.EnhancedQuery{}, "q")

	assert.Empty(t, a.Sources)
	assert.Equal(t, 0.0, a.ConfidenceScore)
	assert.True(t, a.Flags.LowConfidence)
	assert.False(t, a.Flags.UseOfForceCaution)
}

func TestFormatResponseSetsSafetyFlags(t *testing.T) {
	results := []domain.SearchResult{
		res("r", 0.02, domain.ChunkMetadata{Title: "pursuit_policy", Jurisdiction: domain.JurisdictionLocal}),
	}
	a := FormatResponse("Pursuits require supervisor approval.", results, domain.EnhancedQuery{}, "when may I pursue a fleeing vehicle")

	assert.True(t, a.Flags.UseOfForceCaution)
	assert.NotEmpty(t, a.Addendum)
}
