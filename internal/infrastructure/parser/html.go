package parser

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

// parseHTML extracts visible text with newline separators, dropping script
// and style subtrees. HTML files are treated as a single page.
func parseHTML(path string) (*domain.ParsedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html file: %w", err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	collectText(root, &sb)
	text := sb.String()

	var pages []domain.ParsedPage
	if strings.TrimSpace(text) != "" {
		pages = []domain.ParsedPage{{PageNumber: 1, Text: text}}
	}
	return newDocument(path, pages), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			sb.WriteString(trimmed)
			sb.WriteString("\n")
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}
