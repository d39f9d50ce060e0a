package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docchat/core"
)

// Dispatcher selects the extractor for a file by its extension and delegates to it.
// It performs no I/O of its own.
type Dispatcher struct {
	extractors map[Format]Extractor
	logger     *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithExtractor registers (or replaces) the extractor for a format.
func WithExtractor(format Format, extractor Extractor) DispatcherOption {
	return func(d *Dispatcher) {
		if extractor == nil {
			delete(d.extractors, format)
			return
		}
		d.extractors[format] = extractor
	}
}

// WithoutExtractor unregisters a format. Files of that format then fail
// with ErrExtractorUnavailable.
func WithoutExtractor(format Format) DispatcherOption {
	return WithExtractor(format, nil)
}

// WithDispatcherLogger sets a custom logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher with the built-in PDF, DOCX and XLSX
// extractors registered, then applies opts.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		extractors: map[Format]Extractor{
			FormatPDF:  NewPDFExtractor(),
			FormatDOCX: NewDOCXExtractor(),
			FormatXLSX: NewXLSXExtractor(),
		},
		logger: slog.Default().With("component", "extract-dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch extracts the text of file.
//
// Returns ErrUnsupportedFormat for unknown extensions and ErrExtractorUnavailable
// when the format has no registered extractor. Extractor failures are returned
// as-is; a panic inside an extractor is converted to ErrMalformedDocument.
func (d *Dispatcher) Dispatch(ctx context.Context, file core.File) (text string, err error) {
	format, ok := FormatOf(file.Name)
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, Extension(file.Name))
	}

	extractor, ok := d.extractors[format]
	if !ok {
		return "", fmt.Errorf("%w: no %s extractor registered", ErrExtractorUnavailable, format)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("extractor panicked", "file", file.Name, "format", format, "panic", r)
			text = ""
			err = fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	d.logger.Debug("dispatching extraction", "file", file.Name, "format", format, "bytes", len(file.Data))
	return extractor.Extract(ctx, file.Data, file.Name)
}

// Supports reports whether the dispatcher has an extractor for the file's format.
func (d *Dispatcher) Supports(name string) bool {
	format, ok := FormatOf(name)
	if !ok {
		return false
	}
	_, ok = d.extractors[format]
	return ok
}
