// Package extract converts uploaded documents into plain text.
//
// One Extractor exists per supported format:
//
//   - PDFExtractor: page by page; unreadable pages are skipped, not fatal
//   - DOCXExtractor: raw body text of a Word document
//   - XLSXExtractor: each sheet as CSV under a "Sheet: <name>" header
//
// The Dispatcher picks the extractor from the file extension (case-insensitive)
// and reports ErrUnsupportedFormat or ErrExtractorUnavailable uniformly.
// Parse failures are reported as ErrMalformedDocument.
//
// # Usage
//
//	d := extract.NewDispatcher()
//	text, err := d.Dispatch(ctx, core.File{Name: "report.PDF", Data: data})
//	if errors.Is(err, extract.ErrUnsupportedFormat) {
//	    // reject the upload
//	}
package extract
