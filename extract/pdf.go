package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts text page by page. A page whose text layer cannot be
// read contributes nothing; the rest of the document is still returned.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// Extract returns the plain text of every readable page, one line per page.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, name string) (string, error) {
	reader, err := openPDF(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		pageText, err := readPage(reader, i)
		if err != nil {
			e.logger.Warn("could not get text from page", "file", name, "page", i, "err", err)
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	e.logger.Debug("extracted pdf", "file", name, "pages", pages, "length", sb.Len())
	return sb.String(), nil
}

func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return reader, nil
}

// readPage isolates a single page so that a broken content stream
// (which the parser reports by panicking) only loses that page.
func readPage(reader *pdf.Reader, index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: %v", index, r)
		}
	}()

	page := reader.Page(index)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", index)
	}

	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(raw), " "), nil
}
