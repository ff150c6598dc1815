package mcp

import (
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over MCP.
// Tools backed by a nil optional port are not registered.
type Ports struct {
	// Retriever answers context queries. Required.
	Retriever driving.Retriever

	// Prompts assembles complete prompts.
	Prompts driving.PromptBuilder

	// Sync triggers and reports repository syncs.
	Sync driving.SyncCoordinator

	// Files serves component files from the repository.
	Files driving.RepositoryFiles

	// Documents exposes the indexed documents as resources.
	Documents driving.DocumentIndex

	// Defaults are the retrieval options tool calls start from.
	Defaults domain.RetrieveOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
