// Package boost applies metadata-driven score multipliers after rank fusion
// to promote relevant sources and drop superseded law.
package boost

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

const (
	policyLocalMultiplier  = 1.5
	stateMultiplier        = 1.2
	exactStatuteMultiplier = 1.3
	chapterHintMultiplier  = 1.15
)

// Apply boosts fused results by jurisdiction, exact statute match, and
// chapter hints, drops superseded documents, and re-sorts by boosted score
// descending. Multipliers stack multiplicatively.
func Apply(results []domain.SearchResult, query domain.EnhancedQuery) []domain.SearchResult {
	queryLower := strings.ToLower(query.Original)
	isPolicyQuery := strings.Contains(queryLower, "policy")
	exactKeywords := toSet(query.ExactKeywords)
	chapterHints := toSet(query.ChapterHints)

	boosted := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Metadata.Superseded {
			slog.Debug("dropping_superseded", "id", r.ID)
			continue
		}

		multiplier := 1.0
		if isPolicyQuery && r.Metadata.Jurisdiction == domain.JurisdictionLocal {
			multiplier *= policyLocalMultiplier
		}
		if r.Metadata.Jurisdiction == domain.JurisdictionState {
			multiplier *= stateMultiplier
		}
		if intersects(r.Metadata.StatuteNumbers, exactKeywords) {
			multiplier *= exactStatuteMultiplier
		}
		if intersects(r.Metadata.ChapterNumbers, chapterHints) {
			multiplier *= chapterHintMultiplier
		}

		r.BoostedScore = r.RRFScore * multiplier
		boosted = append(boosted, r)
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].BoostedScore > boosted[j].BoostedScore
	})

	slog.Info("relevance_boost",
		"in", len(results),
		"out", len(boosted),
		"policy_query", isPolicyQuery,
	)
	return boosted
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func intersects(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}
