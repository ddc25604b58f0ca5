package contextwin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
	"github.com/mfedorov/legalrag/internal/tokenize"
)

const chunkSeparator = "\n\n---\n\n"

// Builder packs ranked chunks into a token-budgeted context window,
// following cross-references cited inside included chunks.
type Builder struct {
	store      ports.VectorStore
	tokenLimit int
}

func NewBuilder(store ports.VectorStore, tokenLimit int) *Builder {
	return &Builder{store: store, tokenLimit: tokenLimit}
}

// Build greedily packs results in rank order. A ranked chunk that would
// overflow the budget stops packing entirely; an overflowing cross-reference
// chunk is skipped individually so later, smaller ones can still fit.
// References are recorded as followed once looked up, even when no chunk
// matched. Empty input yields an empty window.
func (b *Builder) Build(ctx context.Context, ranked []domain.SearchResult) domain.ContextWindow {
	var parts []string
	var sources []domain.SourceRef
	crossRefsFollowed := []string{}
	seenIDs := make(map[string]bool)
	followed := make(map[string]bool)
	totalTokens := 0

	for _, r := range ranked {
		if seenIDs[r.ID] {
			continue
		}

		chunkTokens := tokenize.Count(r.Document)
		if totalTokens+chunkTokens > b.tokenLimit {
			break
		}

		parts = append(parts, r.Document)
		totalTokens += chunkTokens
		seenIDs[r.ID] = true
		sources = append(sources, sourceRef(r.ID, r.Metadata))

		var newRefs []string
		for _, ref := range DetectCrossReferences(r.Document) {
			if !followed[ref] {
				followed[ref] = true
				newRefs = append(newRefs, ref)
			}
		}
		if len(newRefs) == 0 {
			continue
		}
		crossRefsFollowed = append(crossRefsFollowed, newRefs...)

		for _, xref := range fetchCrossReferenced(ctx, b.store, newRefs) {
			if seenIDs[xref.ID] {
				continue
			}
			xrefTokens := tokenize.Count(xref.Document)
			if totalTokens+xrefTokens > b.tokenLimit {
				continue
			}
			parts = append(parts, xref.Document)
			totalTokens += xrefTokens
			seenIDs[xref.ID] = true
			sources = append(sources, sourceRef(xref.ID, xref.Metadata))
		}
	}

	slog.Info("context_window",
		"chunks", len(sources),
		"tokens", totalTokens,
		"cross_refs", len(crossRefsFollowed),
	)

	return domain.ContextWindow{
		ContextText:       strings.Join(parts, chunkSeparator),
		Sources:           sources,
		CrossRefsFollowed: crossRefsFollowed,
		TotalTokens:       totalTokens,
	}
}

func sourceRef(id string, meta domain.ChunkMetadata) domain.SourceRef {
	return domain.SourceRef{
		ID:             id,
		SourceFile:     meta.SourceFile,
		ContextHeader:  meta.ContextHeader,
		StatuteNumbers: strings.Join(meta.StatuteNumbers, ","),
		SourceType:     string(meta.SourceType),
		StartPage:      meta.StartPage,
		Title:          meta.Title,
	}
}
