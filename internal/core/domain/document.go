package domain

// SourceType classifies a corpus document by the folder it was ingested from.
type SourceType string

const (
	SourceStatute  SourceType = "statute"
	SourceCaseLaw  SourceType = "case_law"
	SourceTraining SourceType = "training"
	SourcePolicy   SourceType = "policy"
	SourceUnknown  SourceType = "unknown"
)

// Jurisdiction marks whether a document is state-level law or a local
// department publication.
type Jurisdiction string

const (
	JurisdictionState Jurisdiction = "state"
	JurisdictionLocal Jurisdiction = "local_department"
)

// ParsedPage is one page of extracted text, 1-indexed.
type ParsedPage struct {
	PageNumber int
	Text       string
}

// ParsedDocument is the parser's output for one source file. FullText is the
// page texts joined with "\n\n"; page estimation during chunking depends on
// that exact 2-character separator.
type ParsedDocument struct {
	FilePath   string
	FileName   string
	Subfolder  string
	Pages      []ParsedPage
	FullText   string
	TotalPages int
}

// Chunk is a contiguous span of document text sized for embedding.
type Chunk struct {
	Text                string
	ContextHeader       string
	ChunkIndex          int
	StartPage           int
	EndPage             int
	TokenCount          int
	SourceFile          string
	OverlapWithPrevious bool
}

// ChunkMetadata is the persisted record for one chunk. Multi-valued fields
// are kept as slices here and comma-joined only at the vector-store boundary,
// since the store restricts metadata values to flat scalars.
type ChunkMetadata struct {
	DocID          string       `json:"doc_id"`
	SourceType     SourceType   `json:"source_type"`
	Jurisdiction   Jurisdiction `json:"jurisdiction"`
	Superseded     bool         `json:"superseded"`
	Title          string       `json:"title"`
	SourceFile     string       `json:"source_file"`
	ChunkIndex     int          `json:"chunk_index"`
	StartPage      int          `json:"start_page"`
	EndPage        int          `json:"end_page"`
	ContextHeader  string       `json:"context_header"`
	StatuteNumbers []string     `json:"statute_numbers"`
	CaseCitations  []string     `json:"case_citations"`
	ChapterNumbers []string     `json:"chapter_numbers"`
	TokenCount     int          `json:"token_count"`
}

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	DocumentsParsed int     `json:"documents_parsed"`
	DocumentsFailed int     `json:"documents_failed"`
	TotalChunks     int     `json:"total_chunks"`
	CollectionTotal int     `json:"collection_total"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}
