package hybrid

// rrfK dampens the contribution of lower-ranked results. 60 is the constant
// from the original RRF paper and works well untuned.
const rrfK = 60

// reciprocalRankFusion merges ranked ID lists. Each appearance contributes
// 1/(k + rank) with rank 1-indexed, summed per document.
func reciprocalRankFusion(rankings ...[]string) map[string]float64 {
	scores := make(map[string]float64)
	for _, ranking := range rankings {
		for i, id := range ranking {
			scores[id] += 1.0 / float64(rrfK+i+1)
		}
	}
	return scores
}
