package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const docxBodyPart = "word/document.xml"

// DOCXExtractor produces the raw text of a Word document body.
// Formatting, layout and images are discarded; each paragraph is followed
// by a blank line.
type DOCXExtractor struct {
	logger *slog.Logger
}

// NewDOCXExtractor creates a DOCX extractor.
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{
		logger: slog.Default().With("component", "docx-extractor"),
	}
}

// Extract returns the text runs of word/document.xml in document order.
func (e *DOCXExtractor) Extract(ctx context.Context, data []byte, name string) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx package: %w", ErrMalformedDocument, err)
	}

	part, err := archive.Open(docxBodyPart)
	if err != nil {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedDocument, docxBodyPart)
	}
	defer part.Close()

	text, err := docxBodyText(part)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	e.logger.Debug("extracted docx", "file", name, "length", len(text))
	return text, nil
}

// docxBodyText walks the WordprocessingML token stream. Only w:t character
// data is text; field codes (w:instrText) and properties are skipped.
// Paragraph properties carry tab-stop definitions, so their subtree is
// never treated as content.
func docxBodyText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := decoder.Skip(); err != nil {
					return "", err
				}
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
