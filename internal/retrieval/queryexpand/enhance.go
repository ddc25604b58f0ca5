package queryexpand

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

var (
	statuteNumberPattern = regexp.MustCompile(`(?:§\s*)?(\d{2,4}\.\d{2,4}(?:\(\d+\)(?:\([a-z]\))?)?)`)
	caseCitationPattern  = regexp.MustCompile(`(\d{4}\s*(?:WI\s*(?:App\s*)?\d+|AP\s*\d+))`)
)

// Enhance expands a raw query for hybrid search. Abbreviations are expanded
// inline first so extracted keywords see the corrected text; synonyms and
// chapter hints are matched against the raw query to keep phrase matching
// intact.
func Enhance(rawQuery string) domain.EnhancedQuery {
	corrected := ExpandAbbreviations(rawQuery)

	var exact []string
	seen := make(map[string]bool)
	for _, pattern := range []*regexp.Regexp{statuteNumberPattern, caseCitationPattern} {
		for _, m := range pattern.FindAllStringSubmatch(corrected, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				exact = append(exact, m[1])
			}
		}
	}

	synonyms := LegalSynonyms(rawQuery)

	semantic := corrected
	if len(synonyms) > 0 {
		semantic = corrected + " " + strings.Join(synonyms, " ")
	}

	hints := ChapterHints(rawQuery)

	slog.Info("query_enhanced",
		"keywords", len(exact),
		"synonyms", len(synonyms),
		"chapter_hints", hints,
	)

	return domain.EnhancedQuery{
		Original:      rawQuery,
		CorrectedText: corrected,
		ExactKeywords: exact,
		SemanticQuery: semantic,
		ChapterHints:  hints,
		Synonyms:      synonyms,
	}
}
