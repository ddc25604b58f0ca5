package hybrid

import (
	"math"
	"strings"
)

// Okapi BM25 parameters. Epsilon floors negative IDF values for terms that
// appear in more than half the corpus, as a fraction of the average IDF.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// bm25Corpus holds the per-term statistics needed to score a query against
// every document. Immutable once built.
type bm25Corpus struct {
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

func tokenizeForBM25(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func newBM25Corpus(documents []string) *bm25Corpus {
	c := &bm25Corpus{
		termFreqs: make([]map[string]int, len(documents)),
		docLens:   make([]int, len(documents)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	totalLen := 0
	for i, doc := range documents {
		tokens := tokenizeForBM25(doc)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			docFreq[tok]++
		}
		c.termFreqs[i] = tf
		c.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	if len(documents) > 0 {
		c.avgDocLen = float64(totalLen) / float64(len(documents))
	}

	n := float64(len(documents))
	idfSum := 0.0
	var negative []string
	for tok, df := range docFreq {
		idf := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		c.idf[tok] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, tok)
		}
	}
	if len(docFreq) > 0 {
		floor := bm25Epsilon * idfSum / float64(len(docFreq))
		for _, tok := range negative {
			c.idf[tok] = floor
		}
	}

	return c
}

// scores returns the BM25 score of the query against every document, indexed
// by corpus position.
func (c *bm25Corpus) scores(queryTokens []string) []float64 {
	out := make([]float64, len(c.termFreqs))
	for _, tok := range queryTokens {
		idf, ok := c.idf[tok]
		if !ok {
			continue
		}
		for i, tf := range c.termFreqs {
			freq := float64(tf[tok])
			if freq == 0 {
				continue
			}
			denom := freq + bm25K1*(1-bm25B+bm25B*float64(c.docLens[i])/c.avgDocLen)
			out[i] += idf * (freq * (bm25K1 + 1)) / denom
		}
	}
	return out
}
