package chunking

import (
	"sort"
	"strings"
)

// HierarchyNode is a detected structural marker. Level 0 is the top of the
// hierarchy; EndPos is the start of the next same-or-shallower node, or the
// text length for the last such node.
type HierarchyNode struct {
	Level    int
	Title    string
	StartPos int
	EndPos   int
}

// DetectHierarchy scans text with the given document type's grammar and
// returns nodes sorted by position with EndPos resolved. Markers within 3
// characters of each other are deduplicated keeping the shallower level.
func DetectHierarchy(text string, docType DocType) []HierarchyNode {
	g := docType.grammar()

	var raw []HierarchyNode
	for _, r := range g.rules {
		for _, loc := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			title := matchTitle(text, loc)
			title = decorateTitle(r.level, title)
			raw = append(raw, HierarchyNode{
				Level:    r.level,
				Title:    strings.TrimSpace(title),
				StartPos: loc[0],
				EndPos:   -1,
			})
		}
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].StartPos < raw[j].StartPos })

	// Deduplicate near-identical positions, keeping the more significant
	// (lower) level.
	deduped := raw[:0]
	for _, node := range raw {
		if len(deduped) > 0 && abs(node.StartPos-deduped[len(deduped)-1].StartPos) < 3 {
			if node.Level < deduped[len(deduped)-1].Level {
				deduped[len(deduped)-1] = node
			}
			continue
		}
		deduped = append(deduped, node)
	}

	// Each node's scope ends where the next sibling or ancestor begins.
	for i := range deduped {
		deduped[i].EndPos = len(text)
		for j := i + 1; j < len(deduped); j++ {
			if deduped[j].Level <= deduped[i].Level {
				deduped[i].EndPos = deduped[j].StartPos
				break
			}
		}
	}

	return deduped
}

func matchTitle(text string, loc []int) string {
	// Prefer the first capture group, falling back to the whole match.
	if len(loc) >= 4 && loc[2] >= 0 {
		return text[loc[2]:loc[3]]
	}
	return text[loc[0]:loc[1]]
}

// decorateTitle wraps bare digit/letter captures in parens for readability:
// subsection "1" becomes "(1)", paragraph "a" becomes "(a)".
func decorateTitle(level int, title string) string {
	switch {
	case level == 2 && isAllDigits(title):
		return "(" + title + ")"
	case level == 3 && len(title) == 1 && title[0] >= 'a' && title[0] <= 'z':
		return "(" + title + ")"
	}
	return title
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// contextPath returns the root-to-leaf chain of nodes enclosing targetPos,
// accumulating only strictly deeper levels.
func contextPath(nodes []HierarchyNode, targetPos int) []HierarchyNode {
	var path []HierarchyNode
	for _, node := range nodes {
		if node.StartPos <= targetPos && targetPos < node.EndPos {
			if len(path) == 0 || node.Level > path[len(path)-1].Level {
				path = append(path, node)
			}
		}
	}
	return path
}

// BuildContextHeader joins a hierarchy path into a breadcrumb like
// "Chapter 943 > § 940.01 > (2) > (a)".
func BuildContextHeader(path []HierarchyNode) string {
	if len(path) == 0 {
		return ""
	}
	titles := make([]string, len(path))
	for i, n := range path {
		titles[i] = n.Title
	}
	return strings.Join(titles, " > ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
