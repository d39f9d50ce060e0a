package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXExtractor renders every worksheet as CSV under a "Sheet: <name>" header,
// in workbook order, with a blank line between sheets.
type XLSXExtractor struct {
	logger *slog.Logger
}

// NewXLSXExtractor creates an XLSX extractor.
func NewXLSXExtractor() *XLSXExtractor {
	return &XLSXExtractor{
		logger: slog.Default().With("component", "xlsx-extractor"),
	}
}

// Extract returns the CSV rendering of all sheets.
func (e *XLSXExtractor) Extract(ctx context.Context, data []byte, name string) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	defer workbook.Close()

	var sb strings.Builder
	sheets := workbook.GetSheetList()
	for _, sheet := range sheets {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%w: sheet %q: %w", ErrMalformedDocument, sheet, err)
		}

		body, err := sheetCSV(rows)
		if err != nil {
			return "", fmt.Errorf("render sheet %q: %w", sheet, err)
		}

		sb.WriteString("Sheet: ")
		sb.WriteString(sheet)
		sb.WriteString("\n")
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}

	e.logger.Debug("extracted xlsx", "file", name, "sheets", len(sheets), "length", sb.Len())
	return sb.String(), nil
}

// sheetCSV writes rows as CSV, padding short rows to the widest row so every
// line has the same number of fields. The trailing newline is dropped.
func sheetCSV(rows [][]string) (string, error) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
