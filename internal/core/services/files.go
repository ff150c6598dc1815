package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure FileService implements the interface.
var _ driving.RepositoryFiles = (*FileService)(nil)

// Well-known file locations in the component repository, matched by suffix.
const (
	componentsListSuffix = "components-list.txt"
	styleGuideSuffix     = "tailwind.config.js"
	componentCodeDir     = "comp-code"
	componentDocsDir     = "DOCS_METADATA"
)

// FileService reads well-known files from the component repository
// at the tip of its branch.
type FileService struct {
	repo   driven.Repository
	source domain.Source
	log    *logger.Logger
}

// NewFileService creates a file service for source.
func NewFileService(repo driven.Repository, source domain.Source, log *logger.Logger) *FileService {
	if log == nil {
		log = logger.Discard()
	}
	return &FileService{repo: repo, source: source, log: log.With("files")}
}

// ComponentsList returns the component catalogue.
func (s *FileService) ComponentsList(ctx context.Context) (string, error) {
	return s.single(ctx, componentsListSuffix)
}

// StyleGuide returns the styling configuration.
func (s *FileService) StyleGuide(ctx context.Context) (string, error) {
	return s.single(ctx, styleGuideSuffix)
}

// ComponentCode returns "path\ncontent" blocks for each component found.
func (s *FileService) ComponentCode(ctx context.Context, refs []driving.ComponentRef) (string, error) {
	suffixes := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Category == "" || r.Slug == "" {
			return "", fmt.Errorf("component code: %w: category and slug are required", domain.ErrInvalidInput)
		}
		suffixes = append(suffixes, componentCodeDir+"/"+r.Category+"/"+r.Slug+".html")
	}
	return s.many(ctx, "component code", suffixes)
}

// ComponentMetadata returns "path\ncontent" blocks for each documented component found.
func (s *FileService) ComponentMetadata(ctx context.Context, names []string) (string, error) {
	suffixes := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return "", fmt.Errorf("component metadata: %w: empty component name", domain.ErrInvalidInput)
		}
		suffixes = append(suffixes, componentDocsDir+"/"+n+".md")
	}
	return s.many(ctx, "component metadata", suffixes)
}

func (s *FileService) single(ctx context.Context, suffix string) (string, error) {
	paths, err := s.repo.ListFiles(ctx, s.source, s.source.Branch)
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}
	p, ok := findSuffix(paths, suffix)
	if !ok {
		return "", fmt.Errorf("%s: %w", suffix, domain.ErrNotFound)
	}
	data, err := s.repo.FetchFile(ctx, s.source, p, s.source.Branch)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	return string(data), nil
}

func (s *FileService) many(ctx context.Context, what string, suffixes []string) (string, error) {
	if len(suffixes) == 0 {
		return "", fmt.Errorf("%s: %w: nothing requested", what, domain.ErrInvalidInput)
	}
	paths, err := s.repo.ListFiles(ctx, s.source, s.source.Branch)
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}

	var blocks []string
	for _, suffix := range suffixes {
		p, ok := findSuffix(paths, suffix)
		if !ok {
			s.log.Debug("%s: no file matches %s", what, suffix)
			continue
		}
		data, err := s.repo.FetchFile(ctx, s.source, p, s.source.Branch)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", p, err)
		}
		blocks = append(blocks, p+"\n"+string(data))
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return strings.Join(blocks, "\n\n"), nil
}

func findSuffix(paths []string, suffix string) (string, bool) {
	for _, p := range paths {
		if p == suffix || strings.HasSuffix(p, "/"+suffix) {
			return p, true
		}
	}
	return "", false
}
