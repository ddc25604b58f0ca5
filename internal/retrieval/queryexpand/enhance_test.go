package queryexpand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandAbbreviationsWholeWord(t *testing.T) {
	out := ExpandAbbreviations("OWI arrest procedure")
	assert.Equal(t, "OWI (Operating While Intoxicated) arrest procedure", out)

	// Substrings of longer words must not expand.
	out = ExpandAbbreviations("the scowling suspect")
	assert.Equal(t, "the scowling suspect", out)
}

func TestExpandAbbreviationsCaseInsensitive(t *testing.T) {
	out := ExpandAbbreviations("what is an owi stop")
	assert.Contains(t, out, "OWI (Operating While Intoxicated)")
}

func TestExpandAbbreviationsMultiple(t *testing.T) {
	out := ExpandAbbreviations("PBT before BAC draw")
	assert.Contains(t, out, "PBT (Preliminary Breath Test)")
	assert.Contains(t, out, "BAC (Blood Alcohol Concentration)")
}

func TestLegalSynonyms(t *testing.T) {
	syns := LegalSynonyms("When can someone be pulled over?")
	assert.Contains(t, syns, "traffic stop")
	assert.Contains(t, syns, "Terry stop")

	assert.Empty(t, LegalSynonyms("what is the capital of Wisconsin"))
}

func TestLegalSynonymsDeduplicated(t *testing.T) {
	// "drunk driving" and "owi" both map to overlapping formal terms.
	syns := LegalSynonyms("drunk driving owi penalties")
	counts := make(map[string]int)
	for _, s := range syns {
		counts[s]++
	}
	for s, n := range counts {
		require.Equal(t, 1, n, "synonym %q repeated", s)
	}
}

func TestChapterHints(t *testing.T) {
	assert.Equal(t, []string{"346"}, ChapterHints("traffic violation"))
	assert.Contains(t, ChapterHints("theft from a store"), "943")
	assert.Empty(t, ChapterHints("completely unrelated"))
}

func TestEnhanceExtractsExactKeywords(t *testing.T) {
	q := Enhance("What does § 346.63(1) say? See 2023 WI App 45.")

	assert.Contains(t, q.ExactKeywords, "346.63(1)")
	assert.Contains(t, q.ExactKeywords, "2023 WI App 45")
	assert.Equal(t, "What does § 346.63(1) say? See 2023 WI App 45.", q.Original)
}

func TestEnhanceSemanticQueryAppendsSynonyms(t *testing.T) {
	q := Enhance("penalties for drunk driving")

	require.NotEmpty(t, q.Synonyms)
	assert.True(t, strings.HasPrefix(q.SemanticQuery, q.CorrectedText))
	for _, s := range q.Synonyms {
		assert.Contains(t, q.SemanticQuery, s)
	}
}

func TestEnhancePlainQueryPassesThrough(t *testing.T) {
	q := Enhance("record retention schedule")

	assert.Equal(t, "record retention schedule", q.CorrectedText)
	assert.Equal(t, "record retention schedule", q.SemanticQuery)
	assert.Empty(t, q.ExactKeywords)
}
