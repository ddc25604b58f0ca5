// Package normalizer strips header/footer noise and normalizes whitespace
// while preserving legal section markers (Chapter, §, Section, Sub., ¶).
// The header/footer patterns are written to never match a marker line, so
// the preservation guarantee is structural.
package normalizer

import (
	"regexp"
	"strings"
)

// Full-line header/footer patterns removed everywhere in the text.
var headerFooterPatterns = []*regexp.Regexp{
	// "Page 1 of 5"
	regexp.MustCompile(`(?im)^\s*Page\s+\d+\s+of\s+\d+\s*$`),
	// "Page 1" on its own line
	regexp.MustCompile(`(?im)^\s*Page\s+\d+\s*$`),
	// "Wisconsin Statutes 2023" running header
	regexp.MustCompile(`(?im)^\s*Wisconsin\s+Statut(?:e|es)\s+\d{4}\s*$`),
	// "Updated 2023-01-15" footer
	regexp.MustCompile(`(?im)^\s*Updated\s+\d{4}[-/]\d{2}[-/]\d{2}\s*$`),
	// Centered page numbers like "- 42 -" or "— 42 —"
	regexp.MustCompile(`(?m)^\s*[-—–]\s*\d+\s*[-—–]\s*$`),
	// Copyright / confidential footer lines
	regexp.MustCompile(`(?im)^\s*(?:Copyright|Confidential|©).*\d{4}\s*$`),
}

// Standalone page-number lines (1-4 digits). Only removed near page
// boundaries so numeric statute content mid-paragraph survives.
var lonePageNumber = regexp.MustCompile(`^\s*\d{1,4}\s*$`)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(` {2,}`)
)

// StripHeadersFooters removes repetitive headers, footers, and standalone
// page numbers. Lone page-number lines are removed only within the first or
// last 3 lines of each double-newline-separated block; blocks of 6 lines or
// fewer are checked in full.
func StripHeadersFooters(text string) string {
	for _, p := range headerFooterPatterns {
		text = p.ReplaceAllString(text, "")
	}

	sections := strings.Split(text, "\n\n")
	cleaned := make([]string, 0, len(sections))

	for _, section := range sections {
		lines := strings.Split(section, "\n")
		if len(lines) <= 6 {
			lines = dropPageNumberLines(lines)
		} else {
			head := dropPageNumberLines(lines[:3])
			tail := dropPageNumberLines(lines[len(lines)-3:])
			middle := lines[3 : len(lines)-3]
			merged := make([]string, 0, len(lines))
			merged = append(merged, head...)
			merged = append(merged, middle...)
			merged = append(merged, tail...)
			lines = merged
		}
		cleaned = append(cleaned, strings.Join(lines, "\n"))
	}

	return strings.Join(cleaned, "\n\n")
}

func dropPageNumberLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if lonePageNumber.MatchString(ln) {
			continue
		}
		out = append(out, ln)
	}
	return out
}

// NormalizeWhitespace collapses whitespace while preserving paragraph
// breaks: tabs become spaces, runs of 3+ newlines become exactly 2, runs of
// 2+ spaces within a line become 1, and every line plus the whole text is
// trimmed.
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\t", " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Normalize runs the full pipeline: strip headers/footers, then normalize
// whitespace. Total on any input including empty.
func Normalize(text string) string {
	return NormalizeWhitespace(StripHeadersFooters(text))
}
