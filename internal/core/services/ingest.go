package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService indexes uploaded files.
type IngestService struct {
	store     *VectorStore
	extractor driven.TextExtractor
	allowed   map[string]bool
	log       *logger.Logger
}

// NewIngestService creates an ingest service accepting the given extensions.
// An empty list accepts DefaultAllowedExtensions.
func NewIngestService(
	store *VectorStore,
	extractor driven.TextExtractor,
	allowedExtensions []string,
	log *logger.Logger,
) *IngestService {
	if len(allowedExtensions) == 0 {
		allowedExtensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[normaliseExt(ext)] = true
	}
	if log == nil {
		log = logger.Discard()
	}
	return &IngestService{
		store:     store,
		extractor: extractor,
		allowed:   allowed,
		log:       log.With("ingest"),
	}
}

// IngestUpload indexes data under the base name of filename, replacing
// any document previously ingested under that name.
func (s *IngestService) IngestUpload(ctx context.Context, data []byte, filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("ingest: %w: filename is required", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("ingest %s: %w: file is empty", name, domain.ErrInvalidInput)
	}
	ext := normaliseExt(path.Ext(name))
	if !s.allowed[ext] {
		return "", fmt.Errorf("ingest %s: %w: %q", name, domain.ErrUnsupportedType, ext)
	}

	content := extractText(ctx, s.extractor, s.log, name, data)
	if content == "" {
		return "", fmt.Errorf("ingest %s: %w", name, domain.ErrNoText)
	}

	if err := s.store.Remove(ctx, name); err != nil {
		return "", fmt.Errorf("ingest %s: %w", name, err)
	}
	n, err := s.store.Upsert(ctx, name, content, domain.DocumentTypeUpload)
	if err != nil {
		return "", fmt.Errorf("ingest %s: %w", name, err)
	}

	s.log.Info("ingested %s (%d chunks)", name, n)
	return fmt.Sprintf("File %s ingested successfully (%d chunks)", name, n), nil
}

// extractText returns the text of a file. Types handled by the extractor
// go through it; other files are read as UTF-8. Failures yield "".
func extractText(
	ctx context.Context, extractor driven.TextExtractor, log *logger.Logger, name string, data []byte,
) string {
	ext := normaliseExt(path.Ext(name))

	if extractor != nil && extractor.Supports(ext) {
		text, err := extractor.Extract(ctx, name, data)
		if err != nil {
			if errors.Is(err, domain.ErrNoText) {
				log.Warn("%s: no extractable text", name)
			} else {
				log.Warn("%s: extract text: %v", name, err)
			}
			return ""
		}
		return strings.TrimSpace(text)
	}
	if ext == ".pdf" {
		log.Warn("%s: no PDF extractor configured", name)
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
}
