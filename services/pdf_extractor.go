package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"findocbot/internal/logger"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidPDF is returned when the upload cannot be parsed as a PDF.
var ErrInvalidPDF = errors.New("invalid PDF file")

// PDFExtractor pulls plain text out of PDF bytes, one paragraph block per page.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText joins the trimmed text of every non-blank page with blank lines,
// so page boundaries become paragraph boundaries for the chunker.
func (e *PDFExtractor) ExtractText(content []byte) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	pages := reader.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from page", "page", i, "error", err)
			continue
		}
		if trimmed := strings.TrimSpace(pageText); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
