// Package contextwin assembles the token-budgeted context for generation,
// following statute cross-references cited inside included chunks.
package contextwin

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/ports"
)

const maxChunksPerRef = 2

// Cross-reference language around statute and chapter citations.
var crossRefPatterns = []*regexp.Regexp{
	// "see also § 940.01", "see section 346.63"
	regexp.MustCompile(`(?i)see\s+(?:also\s+)?(?:§|section|sec\.)\s*(\d{2,4}\.\d{2,4})`),
	// "under § 940.01", "per section 346.63", "pursuant to § 940.01"
	regexp.MustCompile(`(?i)(?:under|per|pursuant\s+to)\s+(?:§|section|sec\.)\s*(\d{2,4}\.\d{2,4})`),
	// "§ 940.01 applies", "section 346.63 governs"
	regexp.MustCompile(`(?i)(?:§|section|sec\.)\s*(\d{2,4}\.\d{2,4})\s+(?:applies|governs|provides|requires|prohibits)`),
	// "Chapter 943"
	regexp.MustCompile(`(?i)Chapter\s+(\d+[A-Z]?)\b`),
}

// DetectCrossReferences extracts statute numbers ("940.01") and chapter
// numbers ("943") from cross-reference phrases, deduplicated in discovery
// order.
func DetectCrossReferences(text string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, pattern := range crossRefPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				refs = append(refs, m[1])
			}
		}
	}
	return refs
}

// fetchCrossReferenced looks up cited statutes or chapters in the store.
// Dotted references match on statute numbers, bare ones on chapter numbers.
// Superseded chunks are skipped; a failed lookup skips that reference only.
// At most maxChunksPerRef chunks per reference, deduplicated across the call.
func fetchCrossReferenced(ctx context.Context, store ports.VectorStore, references []string) []ports.StoredChunk {
	if len(references) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []ports.StoredChunk
	for _, ref := range references {
		field := "chapter_numbers"
		if strings.Contains(ref, ".") {
			field = "statute_numbers"
		}

		matches, err := store.GetByMetadataContains(ctx, field, ref, 0)
		if err != nil {
			slog.Warn("cross_ref_fetch_failed", "ref", ref, "error", err)
			continue
		}

		added := 0
		for _, m := range matches {
			if seen[m.ID] || m.Metadata.Superseded {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
			added++
			if added >= maxChunksPerRef {
				break
			}
		}
	}

	slog.Info("cross_ref_fetch", "refs", len(references), "chunks", len(out))
	return out
}
