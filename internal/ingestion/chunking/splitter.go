package chunking

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/tokenize"
)

const (
	// Candidates before 30% of the window are rejected to avoid
	// degenerate micro-splits.
	minSplitFraction = 0.3
	sampleSize       = 500
)

var (
	paragraphBoundary = regexp.MustCompile(`\n\n+`)
	// Sentence end followed by a capital, paren, or section symbol. The
	// split point is the start of the third group.
	sentenceBoundary = regexp.MustCompile(`([.!?])(\s+)([A-Z(§])`)
)

// findSplitPoint returns the best split position at or before maxChars.
// Priority: structural boundary > paragraph break > sentence end > last
// space > the window itself.
func findSplitPoint(text string, maxChars int, boundary *regexp.Regexp) int {
	if len(text) <= maxChars {
		return len(text)
	}

	region := text[:runeSafe(text, maxChars)]
	minPos := int(float64(maxChars) * minSplitFraction)

	if best := lastMatchStart(boundary, region); best > minPos {
		return best
	}
	if best := lastMatchStart(paragraphBoundary, region); best > minPos {
		return best
	}
	if best := lastSentenceEnd(region); best > minPos {
		return best
	}
	if last := strings.LastIndex(region, " "); last > 0 {
		return last
	}
	return len(region)
}

func lastMatchStart(pattern *regexp.Regexp, region string) int {
	best := -1
	for _, loc := range pattern.FindAllStringIndex(region, -1) {
		best = loc[0]
	}
	return best
}

func lastSentenceEnd(region string) int {
	best := -1
	for _, loc := range sentenceBoundary.FindAllStringSubmatchIndex(region, -1) {
		best = loc[6] // start of the capital/marker after the whitespace
	}
	return best
}

// runeSafe rounds pos down to the nearest rune boundary.
func runeSafe(s string, pos int) int {
	if pos >= len(s) {
		return len(s)
	}
	for pos > 0 && !utf8.RuneStart(s[pos]) {
		pos--
	}
	return pos
}

// buildPageOffsets returns cumulative end offsets per page, matching the
// parser's "\n\n" join of page texts.
func buildPageOffsets(pages []domain.ParsedPage) []int {
	offsets := make([]int, 0, len(pages))
	cumulative := 0
	for _, page := range pages {
		cumulative += len(page.Text)
		offsets = append(offsets, cumulative)
		cumulative += 2 // "\n\n" separator
	}
	return offsets
}

// estimatePage maps a character offset to a 1-indexed page number. The
// mapping is approximate since normalization shifts offsets.
func estimatePage(charOffset int, pageOffsets []int) int {
	if len(pageOffsets) == 0 {
		return 1
	}
	idx := sort.SearchInts(pageOffsets, charOffset+1)
	if idx >= len(pageOffsets) {
		return len(pageOffsets)
	}
	return idx + 1
}

// splitSection splits one section of text into token-bounded chunks with
// overlap, advancing by at least half the target window per chunk.
func splitSection(
	text, contextHeader string,
	targetTokens int,
	overlapFraction float64,
	sourceFile string,
	startChunkIndex int,
	pageOffsets []int,
	textStartOffset int,
	boundary *regexp.Regexp,
) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	charsPerToken := tokenize.EstimateCharsPerToken(text, sampleSize)
	targetChars := int(float64(targetTokens) * charsPerToken)
	overlapChars := int(float64(targetChars) * overlapFraction)
	minAdvance := max(targetChars/2, 100)

	var chunks []domain.Chunk
	chunkIdx := startChunkIndex
	remaining := text
	offsetInSection := 0
	first := true

	for strings.TrimSpace(remaining) != "" {
		splitAt := findSplitPoint(remaining, targetChars, boundary)
		chunkText := strings.TrimSpace(remaining[:splitAt])
		if chunkText == "" {
			break
		}

		absStart := textStartOffset + offsetInSection
		absEnd := absStart + splitAt

		chunks = append(chunks, domain.Chunk{
			Text:                chunkText,
			ContextHeader:       contextHeader,
			ChunkIndex:          chunkIdx,
			StartPage:           estimatePage(absStart, pageOffsets),
			EndPage:             estimatePage(absEnd, pageOffsets),
			TokenCount:          tokenize.Count(chunkText),
			SourceFile:          sourceFile,
			OverlapWithPrevious: !first,
		})

		chunkIdx++
		first = false

		advance := max(splitAt-overlapChars, minAdvance)
		advance = min(advance, len(remaining))
		advance = runeSafe(remaining, advance)
		if advance <= 0 {
			break
		}
		offsetInSection += advance
		remaining = remaining[advance:]
	}

	return chunks
}

// ChunkDocument splits a normalized document into embedding-ready chunks.
// The hierarchy grammar is selected from the document's subfolder, with
// content sniffing as fallback. A document with no primary markers is
// chunked as flat text under its filename. Empty input yields no chunks.
func ChunkDocument(
	doc *domain.ParsedDocument,
	normalizedText string,
	targetTokens int,
	overlapFraction float64,
) []domain.Chunk {
	docType := ResolveDocType(doc.Subfolder, normalizedText)
	g := docType.grammar()

	pageOffsets := buildPageOffsets(doc.Pages)
	allNodes := DetectHierarchy(normalizedText, docType)

	var primaryNodes []HierarchyNode
	for _, n := range allNodes {
		if g.primaryLevels[n.Level] {
			primaryNodes = append(primaryNodes, n)
		}
	}

	docTitle := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))

	if len(primaryNodes) == 0 {
		chunks := splitSection(
			normalizedText, docTitle,
			targetTokens, overlapFraction,
			doc.FilePath, 0, pageOffsets, 0, g.splitBoundary,
		)
		slog.Debug("chunked_flat", "file", doc.FileName, "chunks", len(chunks), "doc_type", docType.String())
		return chunks
	}

	// Section ranges run from one primary marker to the next, with a
	// leading section for any text before the first marker.
	type span struct{ start, end int }
	var sections []span
	if primaryNodes[0].StartPos > 0 {
		sections = append(sections, span{0, primaryNodes[0].StartPos})
	}
	for i, node := range primaryNodes {
		end := len(normalizedText)
		if i+1 < len(primaryNodes) {
			end = primaryNodes[i+1].StartPos
		}
		sections = append(sections, span{node.StartPos, end})
	}

	var allChunks []domain.Chunk
	chunkIdx := 0

	for _, sec := range sections {
		sectionText := normalizedText[sec.start:sec.end]
		if strings.TrimSpace(sectionText) == "" {
			continue
		}

		header := BuildContextHeader(contextPath(allNodes, sec.start))
		if header == "" {
			header = docTitle
		}

		chunks := splitSection(
			sectionText, header,
			targetTokens, overlapFraction,
			doc.FilePath, chunkIdx, pageOffsets, sec.start, g.splitBoundary,
		)

		// Long sections can contain nested markers; refresh each chunk's
		// header from the sub-hierarchy near its approximate midpoint.
		for i := range chunks {
			midPos := sec.start + (chunks[i].ChunkIndex-chunkIdx)*((sec.end-sec.start)/max(len(chunks), 1))
			midPos = min(midPos, sec.end-1)
			if subPath := contextPath(allNodes, midPos); len(subPath) > 0 {
				chunks[i].ContextHeader = BuildContextHeader(subPath)
			}
		}

		allChunks = append(allChunks, chunks...)
		chunkIdx += len(chunks)
	}

	slog.Debug("chunked_document",
		"file", doc.FileName,
		"chunks", len(allChunks),
		"primary_sections", len(primaryNodes),
		"total_nodes", len(allNodes),
		"doc_type", docType.String(),
	)

	return allChunks
}
