package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions outside pdf, docx and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrExtractorUnavailable is returned when the format is recognized but no
	// extractor backing it is registered with the dispatcher.
	ErrExtractorUnavailable = errors.New("extractor unavailable")

	// ErrMalformedDocument is returned when content cannot be parsed as the claimed format.
	ErrMalformedDocument = errors.New("malformed document")
)
