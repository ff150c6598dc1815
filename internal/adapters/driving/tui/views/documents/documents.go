// Package documents provides the indexed documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// ErrNoDocumentIndex indicates that no document index was provided.
var ErrNoDocumentIndex = errors.New("document index not available")

// View lists indexed documents.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.List
	statusbar *status.Bar
	docs      driving.DocumentIndex
	ctx       context.Context

	// confirm holds the id awaiting a second remove keypress.
	confirm string
	width   int
	height  int
	err     error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, docs driving.DocumentIndex) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		list:      list.New(s, "Documents", "No documents indexed. Run a sync or upload a file."),
		statusbar: status.NewBar(s, km.DocumentsHelp()),
		docs:      docs,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// SetContext sets the context used for index calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.statusbar.Set(status.StateWorking, "Loading documents...")
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, docs := v.ctx, v.docs
	return func() tea.Msg {
		if docs == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentIndex}
		}
		recs, err := docs.Documents(ctx)
		return messages.DocumentsLoaded{Documents: recs, Err: err}
	}
}

func (v *View) remove(docID string) tea.Cmd {
	ctx, docs := v.ctx, v.docs
	return func() tea.Msg {
		if docs == nil {
			return messages.DocumentRemoved{DocID: docID, Err: ErrNoDocumentIndex}
		}
		return messages.DocumentRemoved{DocID: docID, Err: docs.Remove(ctx, docID)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.Set(status.StateError, msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.list.SetItems(toItems(msg.Documents))
		v.statusbar.Set(status.StateReady, fmt.Sprintf("%d documents", len(msg.Documents)))
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.statusbar.Set(status.StateError, msg.Err.Error())
			return v, nil
		}
		v.statusbar.Set(status.StateDone, "Removed "+msg.DocID)
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	pending := v.confirm
	v.confirm = ""

	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case msg.Type == tea.KeyEnter:
		item := v.list.SelectedItem()
		if item == nil {
			return v, nil
		}
		id := item.ID
		return v, func() tea.Msg { return messages.DocumentSelected{DocID: id} }

	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.Init()

	case keymap.Matches(k, v.keymap.Remove):
		item := v.list.SelectedItem()
		if item == nil {
			return v, nil
		}
		if pending != item.ID {
			v.confirm = item.ID
			v.statusbar.Set(status.StateWorking, "Press d again to remove "+item.ID)
			return v, nil
		}
		v.statusbar.Set(status.StateWorking, "Removing "+item.ID+"...")
		return v, v.remove(item.ID)
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func toItems(recs []domain.DocumentRecord) []list.Item {
	items := make([]list.Item, len(recs))
	for i, rec := range recs {
		docType := rec.DocumentType
		if docType == "" {
			docType = "repository"
		}
		detail := docType
		if !rec.LastModified.IsZero() {
			detail += " · modified " + rec.LastModified.Local().Format("2006-01-02 15:04")
		}
		items[i] = list.Item{
			ID:     rec.DocID,
			Title:  rec.DocID,
			Detail: detail,
			Badge:  humanSize(len(rec.Content)),
		}
	}
	return items
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Documents"))
	b.WriteString("\n\n")
	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(v.list.View())
	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-5)
	v.statusbar.SetWidth(width)
}

// Count returns the number of listed documents.
func (v *View) Count() int {
	return v.list.Count()
}
