package extract

import (
	"context"
	"path/filepath"
	"strings"
)

// Format is a supported document format, named by its lowercase extension.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format in a stable order.
var Formats = []Format{FormatPDF, FormatDOCX, FormatXLSX}

// Extractor converts the raw bytes of one document into plain text.
// Implementations must be safe for concurrent use and deterministic:
// identical input bytes always yield identical text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, name string) (string, error)
}

// ExtractorFunc adapts an ordinary function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, data []byte, name string) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, data []byte, name string) (string, error) {
	return f(ctx, data, name)
}

// Extension returns the lowercase extension of name without the leading dot.
// A name without a dot yields the empty string.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// FormatOf resolves the format of a file name, ignoring extension case.
func FormatOf(name string) (Format, bool) {
	ext := Format(Extension(name))
	for _, f := range Formats {
		if f == ext {
			return f, true
		}
	}
	return "", false
}
