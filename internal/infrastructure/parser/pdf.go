package parser

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

// parsePDF extracts text page by page. A page that yields no text still
// occupies its slot so page numbering stays aligned with the source file.
func parsePDF(path string) (*domain.ParsedDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]domain.ParsedPage, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			extracted, err := page.GetPlainText(nil)
			if err == nil {
				text = extracted
			}
		}
		pages = append(pages, domain.ParsedPage{PageNumber: i, Text: text})
	}

	return newDocument(path, pages), nil
}
