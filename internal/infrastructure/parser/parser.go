// Package parser extracts page-segmented plain text from the source
// document tree. PDF, HTML, and plain-text files are supported; the
// subfolder under the data root classifies each document.
package parser

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".html": true,
	".htm":  true,
	".txt":  true,
}

type Parser struct{}

var _ ports.DocumentParser = (*Parser)(nil)

func New() *Parser {
	return &Parser{}
}

// ParseFile dispatches on the file extension. Unsupported extensions return
// domain.ErrUnsupportedFile.
func (p *Parser) ParseFile(path string) (*domain.ParsedDocument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return parsePDF(path)
	case ".html", ".htm":
		return parseHTML(path)
	case ".txt":
		return parseText(path)
	default:
		return nil, domain.WrapError(domain.ErrUnsupportedFile, "parse",
			fmt.Errorf("unsupported file type %q", filepath.Ext(path)))
	}
}

// ParseDirectory walks dataDir recursively and parses every supported file
// in sorted order. Per-file failures are collected, not fatal; the second
// return value carries them.
func (p *Parser) ParseDirectory(dataDir string) ([]*domain.ParsedDocument, []error) {
	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, []error{fmt.Errorf("resolve data dir: %w", err)}
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, []error{fmt.Errorf("data directory not found: %s", dataDir)}
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, []error{fmt.Errorf("walk data dir: %w", walkErr)}
	}
	sort.Strings(files)

	if len(files) == 0 {
		slog.Warn("no_supported_files", "data_dir", dataDir)
		return nil, nil
	}

	var documents []*domain.ParsedDocument
	var failures []error
	for i, path := range files {
		slog.Info("parsing_file", "file", filepath.Base(path), "n", i+1, "total", len(files))
		doc, err := p.ParseFile(path)
		if err != nil {
			slog.Error("parse_failed", "file", path, "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", path, err))
			continue
		}
		doc.Subfolder = resolveSubfolder(path, root)
		documents = append(documents, doc)
	}

	slog.Info("parse_directory_done", "parsed", len(documents), "failed", len(failures))
	return documents, failures
}

// resolveSubfolder returns the first path element under the data root, or
// "" for files placed directly in the root.
func resolveSubfolder(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) > 1 {
		return parts[0]
	}
	return ""
}

func newDocument(path string, pages []domain.ParsedPage) *domain.ParsedDocument {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return &domain.ParsedDocument{
		FilePath:   abs,
		FileName:   filepath.Base(path),
		Pages:      pages,
		FullText:   strings.Join(texts, "\n\n"),
		TotalPages: len(pages),
	}
}

func parseText(path string) (*domain.ParsedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	text := string(raw)

	var pages []domain.ParsedPage
	if strings.TrimSpace(text) != "" {
		pages = []domain.ParsedPage{{PageNumber: 1, Text: text}}
	}
	return newDocument(path, pages), nil
}
