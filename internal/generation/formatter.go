package generation

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

// Disclaimer is appended to every answer, including empty-result ones.
const Disclaimer = "Disclaimer: This system provides legal information, not formal legal " +
	"advice. Always verify with current statutes."

const (
	confidenceBase         = 0.20
	topicRelevanceBonus    = 0.25
	topScoreWeight         = 0.30
	varianceWeight         = 0.10
	distinctSourceBonus    = 0.10
	distinctSourceCap      = 0.30
	lowConfidenceThreshold = 0.6

	// A result ranked first in both retrieval legs scores 2/61 ~ 0.033
	// with k=60; that is the normalization ceiling for fused scores.
	topScoreCeiling  = 0.033
	varianceCeiling  = 0.0001
	documentTruncLen = 500
	maxSources       = 3
)

// ComputeConfidence scores retrieval quality in [0, 1], rounded to three
// decimals. Empty results pin the score to zero.
func ComputeConfidence(results []domain.SearchResult, query domain.EnhancedQuery) (float64, bool) {
	if len(results) == 0 {
		return 0.0, true
	}

	score := confidenceBase

	// Topic relevance: an exact statute or citation hit on the top result
	// is the strongest signal; synonyms in the top 3 are the fallback.
	exactKeywords := toSet(query.ExactKeywords)
	if len(exactKeywords) > 0 {
		top := results[0].Metadata
		if intersects(top.StatuteNumbers, exactKeywords) || intersects(top.CaseCitations, exactKeywords) {
			score += topicRelevanceBonus
		}
	} else if len(query.Synonyms) > 0 {
		var sb strings.Builder
		for _, r := range results[:min(3, len(results))] {
			sb.WriteString(r.Document)
			sb.WriteString(" ")
			sb.WriteString(r.Metadata.Title)
			sb.WriteString(" ")
			sb.WriteString(r.Metadata.ContextHeader)
			sb.WriteString(" ")
		}
		haystack := strings.ToLower(sb.String())
		for _, syn := range query.Synonyms {
			if strings.Contains(haystack, strings.ToLower(syn)) {
				score += topicRelevanceBonus
				break
			}
		}
	}

	score += topScoreWeight * math.Min(results[0].Score()/topScoreCeiling, 1.0)

	if len(results) >= 5 {
		variance := sampleVariance(results[:5])
		score += varianceWeight * math.Min(variance/varianceCeiling, 1.0)
	}

	top5 := results[:min(5, len(results))]
	distinct := make(map[string]bool)
	for _, r := range top5 {
		distinct[r.Metadata.SourceFile] = true
	}
	score += math.Min(float64(len(distinct))*distinctSourceBonus, distinctSourceCap)

	confidence := math.Max(0.0, math.Min(1.0, score))
	confidence = math.Round(confidence*1000) / 1000
	return confidence, confidence < lowConfidenceThreshold
}

// sampleVariance with Bessel's correction, matching statistics.variance.
func sampleVariance(results []domain.SearchResult) float64 {
	n := float64(len(results))
	mean := 0.0
	for _, r := range results {
		mean += r.Score()
	}
	mean /= n

	sum := 0.0
	for _, r := range results {
		d := r.Score() - mean
		sum += d * d
	}
	return sum / (n - 1)
}

// FormatResponse assembles the final answer: confidence, safety flags,
// addendum, the top sources, and the disclaimer.
func FormatResponse(rawResponse string, results []domain.SearchResult, query domain.EnhancedQuery, rawQuery string) domain.Answer {
	answerText := strings.TrimSpace(rawResponse)

	confidence, low := ComputeConfidence(results, query)

	safetyMetas := make([]domain.ChunkMetadata, 0, 5)
	for _, r := range results[:min(5, len(results))] {
		safetyMetas = append(safetyMetas, r.Metadata)
	}
	safety := BuildSafety(rawQuery, answerText, safetyMetas)

	sources := make([]domain.FormattedSource, 0, maxSources)
	for _, r := range results {
		if len(sources) >= maxSources {
			break
		}
		meta := r.Metadata
		title := meta.Title
		if title == "" && meta.SourceFile != "" {
			title = strings.TrimSuffix(filepath.Base(meta.SourceFile), filepath.Ext(meta.SourceFile))
		}
		if title == "" {
			title = "Unknown"
		}
		doc := r.Document
		if len(doc) > documentTruncLen {
			doc = doc[:documentTruncLen]
		}
		sources = append(sources, domain.FormattedSource{
			Title:          title,
			SourceFile:     meta.SourceFile,
			ContextHeader:  meta.ContextHeader,
			SourceType:     string(meta.SourceType),
			Document:       doc,
			Score:          r.Score(),
			ChunkID:        r.ID,
			StatuteNumbers: strings.Join(meta.StatuteNumbers, ","),
			CaseCitations:  strings.Join(meta.CaseCitations, ","),
		})
	}

	return domain.Answer{
		Text:            answerText,
		Sources:         sources,
		ConfidenceScore: confidence,
		Flags: domain.ResponseFlags{
			LowConfidence:     low,
			OutdatedPossible:  safety.OutdatedPossible,
			JurisdictionNote:  safety.JurisdictionNote,
			UseOfForceCaution: safety.UseOfForceCaution,
		},
		Addendum:   safety.Addendum,
		Disclaimer: Disclaimer,
	}
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
