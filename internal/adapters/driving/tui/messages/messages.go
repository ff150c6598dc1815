// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// RetrieveCompleted carries a retrieval result back to the model.
type RetrieveCompleted struct {
	Query       string
	Result      domain.RetrievalResult
	Diagnostics *domain.Diagnostics
	Err         error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewRetrieve is the query input and context view.
	ViewRetrieve
	// ViewSources lists repositories and their sync state.
	ViewSources
	// ViewDocuments lists indexed documents.
	ViewDocuments
	// ViewDocContent shows one document.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewRetrieve:
		return "retrieve"
	case ViewSources:
		return "sources"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// StatusLoaded carries the sync state of every configured repository.
type StatusLoaded struct {
	Statuses []driving.SourceStatus
	Err      error
}

// SyncStarted signals a sync was triggered for Source, or all sources when empty.
type SyncStarted struct {
	Source string
}

// SyncCompleted carries the outcomes of a sync pass.
type SyncCompleted struct {
	Outcomes []domain.SyncOutcome
	Err      error
}

// DocumentsLoaded carries the indexed documents.
type DocumentsLoaded struct {
	Documents []domain.DocumentRecord
	Err       error
}

// DocumentSelected signals a document was chosen for viewing.
type DocumentSelected struct {
	DocID string
}

// DocumentContentLoaded carries the content of a document.
type DocumentContentLoaded struct {
	DocID   string
	Content string
	Err     error
}

// DocumentRemoved signals a document was removed from the index.
type DocumentRemoved struct {
	DocID string
	Err   error
}
