// Package tui provides an interactive terminal user interface for docsync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
// Only Retriever is required; views for missing ports report them as unavailable.
type Ports struct {
	// Retriever answers queries.
	Retriever driving.Retriever

	// Sync triggers and reports repository syncs.
	Sync driving.SyncCoordinator

	// Documents lists and removes indexed documents.
	Documents driving.DocumentIndex

	// Defaults are the retrieval options used for every query.
	Defaults domain.RetrieveOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
