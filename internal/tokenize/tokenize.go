// Package tokenize estimates token counts for chunk sizing and context
// budgeting. Counts approximate a BPE encoder: one token per word plus one
// per additional five characters of longer words. The absolute numbers only
// need to be consistent across the pipeline, not encoder-exact.
package tokenize

import "strings"

const defaultCharsPerToken = 4.0

// Count returns the estimated token count for text. Empty or
// whitespace-only input counts zero; any other input counts at least one.
func Count(text string) int {
	fields := strings.Fields(text)
	n := 0
	for _, f := range fields {
		n += 1 + (len(f)-1)/5
	}
	return n
}

// EstimateCharsPerToken samples up to sampleSize characters of text and
// returns the observed characters-per-token ratio, or 4.0 when the sample
// yields no tokens.
func EstimateCharsPerToken(text string, sampleSize int) float64 {
	if sampleSize <= 0 {
		sampleSize = 500
	}
	sample := text
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	tokens := Count(sample)
	if tokens == 0 {
		return defaultCharsPerToken
	}
	return float64(len(sample)) / float64(tokens)
}
