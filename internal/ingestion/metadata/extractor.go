// Package metadata derives the persisted metadata record for each chunk:
// a deterministic ID, the source classification from the folder layout, and
// regex-extracted statute, citation, and chapter references.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

var subfolderToSourceType = map[string]domain.SourceType{
	"statute":  domain.SourceStatute,
	"statutes": domain.SourceStatute,
	"case_law": domain.SourceCaseLaw,
	"training": domain.SourceTraining,
	"policy":   domain.SourcePolicy,
}

// Madison and Milwaukee publications are department-level, not state law.
var localJurisdictionKeywords = []string{
	"madison",
	"milwaukee",
	"dane county",
	"milwaukee county",
	"city of madison",
	"city of milwaukee",
}

var (
	// "§ 940.01", "346.63(1)(a)", "940.01(2)"
	statuteNumberPattern = regexp.MustCompile(`(?:§\s*)?(\d{2,4}\.\d{2,4}(?:\(\d+\)(?:\([a-z]\))?)?)`)
	// "2023 WI App 45", "2023 WI 12", "2023AP001234"
	caseCitationPattern = regexp.MustCompile(`(\d{4}\s*(?:WI\s*(?:App\s*)?\d+|AP\s*\d+))`)
	// "Chapter 943", "Chapter 346A"
	chapterPattern = regexp.MustCompile(`(?i)Chapter\s+(\d+[A-Z]?)`)
)

// GenerateDocID returns a deterministic chunk identifier: a truncated SHA-256
// over the source path, chunk index, and a text prefix. Re-ingesting the same
// file yields the same IDs, so store upserts stay idempotent.
func GenerateDocID(chunkText, sourceFile string, chunkIndex int) string {
	prefix := chunkText
	if len(prefix) > 200 {
		prefix = prefix[:200]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s::%d::%s", sourceFile, chunkIndex, prefix)))
	return hex.EncodeToString(sum[:])[:32]
}

// InferSourceType maps a subfolder name to its canonical source type.
func InferSourceType(subfolder string) domain.SourceType {
	if st, ok := subfolderToSourceType[strings.ToLower(subfolder)]; ok {
		return st
	}
	return domain.SourceUnknown
}

// InferJurisdiction checks the filename and the first 2000 characters of the
// chunk for local-department keywords, defaulting to state.
func InferJurisdiction(text, fileName string) domain.Jurisdiction {
	sample := text
	if len(sample) > 2000 {
		sample = sample[:2000]
	}
	haystack := strings.ToLower(fileName + " " + sample)
	for _, kw := range localJurisdictionKeywords {
		if strings.Contains(haystack, kw) {
			return domain.JurisdictionLocal
		}
	}
	return domain.JurisdictionState
}

// ExtractStatuteNumbers returns statute references in first-seen order.
func ExtractStatuteNumbers(text string) []string {
	return extractUnique(statuteNumberPattern, text)
}

// ExtractCaseCitations returns case citations in first-seen order.
func ExtractCaseCitations(text string) []string {
	return extractUnique(caseCitationPattern, text)
}

// ExtractChapterNumbers returns chapter references in first-seen order.
func ExtractChapterNumbers(text string) []string {
	return extractUnique(chapterPattern, text)
}

func extractUnique(pattern *regexp.Regexp, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Extract builds the full metadata record for a chunk. Reference extraction
// runs over the context header and the body together, so a breadcrumb like
// "Chapter 943 > 943.01" contributes references even when the body repeats
// none of them.
func Extract(chunk domain.Chunk, doc *domain.ParsedDocument) domain.ChunkMetadata {
	combined := chunk.ContextHeader + "\n" + chunk.Text
	title := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))

	return domain.ChunkMetadata{
		DocID:          GenerateDocID(chunk.Text, doc.FilePath, chunk.ChunkIndex),
		SourceType:     InferSourceType(doc.Subfolder),
		Jurisdiction:   InferJurisdiction(chunk.Text, doc.FileName),
		Superseded:     false,
		Title:          title,
		SourceFile:     doc.FilePath,
		ChunkIndex:     chunk.ChunkIndex,
		StartPage:      chunk.StartPage,
		EndPage:        chunk.EndPage,
		ContextHeader:  chunk.ContextHeader,
		StatuteNumbers: ExtractStatuteNumbers(combined),
		CaseCitations:  ExtractCaseCitations(combined),
		ChapterNumbers: ExtractChapterNumbers(combined),
		TokenCount:     chunk.TokenCount,
	}
}
