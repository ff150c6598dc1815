package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docsync resources.
	uriScheme = "docsync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Sync != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "sources",
			Name:        "sources",
			Description: "Configured repositories and their sync state",
			MIMEType:    "application/json",
		}, s.handleSourcesResource)
	}

	if s.ports.Documents == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents stored in the index",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Content of a specific document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSourcesResource returns the configured repositories.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	statuses, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	type sourceInfo struct {
		ID       string `json:"id"`
		URL      string `json:"url"`
		Branch   string `json:"branch"`
		Revision string `json:"revision,omitempty"`
		LastSync string `json:"last_sync,omitempty"`
	}

	infos := make([]sourceInfo, len(statuses))
	for i, st := range statuses {
		infos[i] = sourceInfo{
			ID:       st.Source.ID(),
			URL:      st.Source.URL,
			Branch:   st.Source.Branch,
			Revision: st.Revision,
		}
		if !st.LastSync.IsZero() {
			infos[i].LastSync = st.LastSync.UTC().Format(time.RFC3339)
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleDocumentsResource lists the stored documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Documents.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID   string `json:"id"`
		Type string `json:"type,omitempty"`
		URI  string `json:"uri"`
		Size int    `json:"size"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:   docs[i].DocID,
			Type: docs[i].DocumentType,
			URI:  uriScheme + "documents/" + docs[i].DocID,
			Size: len(docs[i].Content),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Documents.Document(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document content: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     rec.Content,
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like docsync://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
