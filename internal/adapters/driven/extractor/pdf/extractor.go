// Package pdf extracts plain text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// MinTextLength is the number of non-space characters below which a PDF
// is treated as scanned (image only) and yields no text.
const MinTextLength = 30

// Extractor reads the text layer of PDF files.
type Extractor struct{}

// New creates a PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether ext is ".pdf".
func (e *Extractor) Supports(ext string) bool {
	return ext == ".pdf"
}

// Extract returns the text of every readable page, separated by blank lines.
// Pages that fail to decode are skipped.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: parse %s: %v", filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: parse %s: %w", filename, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}

	text = b.String()
	if nonSpace(text) <= MinTextLength {
		return "", fmt.Errorf("pdf: %s: %w", filename, domain.ErrNoText)
	}
	return text, nil
}

func nonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
