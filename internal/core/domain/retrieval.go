package domain

// EnhancedQuery is the per-request expansion of a raw user query. It is
// built once and threaded through the whole retrieval pipeline.
type EnhancedQuery struct {
	Original      string   `json:"original"`
	CorrectedText string   `json:"corrected_text"`
	ExactKeywords []string `json:"exact_keywords"`
	SemanticQuery string   `json:"semantic_query"`
	ChapterHints  []string `json:"chapter_hints"`
	Synonyms      []string `json:"synonyms"`
}

// SearchResult is one retrieved chunk with its fused and boosted scores.
// Identity is the ID; RRFScore is always positive for returned results.
type SearchResult struct {
	ID           string
	Document     string
	Metadata     ChunkMetadata
	RRFScore     float64
	BoostedScore float64
}

// Score returns the boosted score when set, else the raw fused score.
func (r SearchResult) Score() float64 {
	if r.BoostedScore > 0 {
		return r.BoostedScore
	}
	return r.RRFScore
}

// SourceRef is a citation record for one chunk included in the context.
type SourceRef struct {
	ID             string `json:"id"`
	SourceFile     string `json:"source_file"`
	ContextHeader  string `json:"context_header"`
	StatuteNumbers string `json:"statute_numbers"`
	SourceType     string `json:"source_type"`
	StartPage      int    `json:"start_page"`
	Title          string `json:"title"`
}

// ContextWindow is the assembled, token-budgeted context for generation.
type ContextWindow struct {
	ContextText       string
	Sources           []SourceRef
	CrossRefsFollowed []string
	TotalTokens       int
}

// ResponseFlags are the boolean quality and safety annotations attached to
// every answer. They are computed from retrieval signals and source
// metadata, never from the phrasing of the generated text alone.
type ResponseFlags struct {
	LowConfidence     bool `json:"LOW_CONFIDENCE"`
	OutdatedPossible  bool `json:"OUTDATED_POSSIBLE"`
	JurisdictionNote  bool `json:"JURISDICTION_NOTE"`
	UseOfForceCaution bool `json:"USE_OF_FORCE_CAUTION"`
}

// FormattedSource is one of the up-to-three sources surfaced to the user.
type FormattedSource struct {
	Title          string  `json:"title"`
	SourceFile     string  `json:"source_file"`
	ContextHeader  string  `json:"context_header"`
	SourceType     string  `json:"source_type"`
	Document       string  `json:"document"`
	Score          float64 `json:"score"`
	ChunkID        string  `json:"chunk_id"`
	StatuteNumbers string  `json:"statute_numbers"`
	CaseCitations  string  `json:"case_citations"`
}

// Answer is the final response returned by the query pipeline.
type Answer struct {
	Text            string            `json:"answer"`
	Sources         []FormattedSource `json:"sources"`
	ConfidenceScore float64           `json:"confidence_score"`
	Flags           ResponseFlags     `json:"flags"`
	Addendum        string            `json:"addendum,omitempty"`
	Disclaimer      string            `json:"disclaimer"`
}
