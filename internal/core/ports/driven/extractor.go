package driven

import "context"

// TextExtractor turns binary document formats into plain text.
type TextExtractor interface {
	// Supports reports whether the extractor handles the file extension
	// (lowercase, with leading dot).
	Supports(ext string) bool

	// Extract returns the document text, or domain.ErrNoText when the
	// file holds no usable text.
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}
