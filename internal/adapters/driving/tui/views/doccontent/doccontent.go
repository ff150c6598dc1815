// Package doccontent provides the document content view for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// ErrNoDocumentIndex indicates that no document index was provided.
var ErrNoDocumentIndex = errors.New("document index not available")

// View shows the stored text of one document.
type View struct {
	styles   *styles.Styles
	docs     driving.DocumentIndex
	ctx      context.Context
	viewport viewport.Model

	docID   string
	content string
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, docs driving.DocumentIndex) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		docs:     docs,
		ctx:      context.Background(),
		viewport: viewport.New(80, 18),
		width:    80,
		height:   24,
	}
}

// SetContext sets the context used for index calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetDocument switches to docID and loads its content.
func (v *View) SetDocument(docID string) tea.Cmd {
	v.docID = docID
	v.content = ""
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()

	ctx, docs := v.ctx, v.docs
	return func() tea.Msg {
		if docs == nil {
			return messages.DocumentContentLoaded{DocID: docID, Err: ErrNoDocumentIndex}
		}
		rec, err := docs.Document(ctx, docID)
		if err != nil {
			return messages.DocumentContentLoaded{DocID: docID, Err: err}
		}
		return messages.DocumentContentLoaded{DocID: docID, Content: rec.Content}
	}
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentContentLoaded:
		if msg.DocID != v.docID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.content = msg.Content
		v.viewport.SetContent(v.wrapped())
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
		case "g", "home":
			v.viewport.GotoTop()
			return v, nil
		case "G", "end":
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// wrapped soft-wraps the content to the view width.
func (v *View) wrapped() string {
	return lipgloss.NewStyle().Width(max(v.width-2, 20)).Render(v.content)
}

// View renders the document content view.
func (v *View) View() string {
	header := v.styles.Title.Render(v.docID)
	var body string
	switch {
	case v.loading:
		body = v.styles.Muted.Render("Loading...")
	case v.err != nil:
		body = v.styles.Error.Render("Error: " + v.err.Error())
	default:
		body = v.viewport.View()
	}
	footer := v.styles.Help.Render(fmt.Sprintf("%3.0f%%  [j/k] scroll  [g/G] top/bottom  [esc] back",
		v.viewport.ScrollPercent()*100))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-6, 3)
	if v.content != "" {
		v.viewport.SetContent(v.wrapped())
	}
}

// DocID returns the displayed document id.
func (v *View) DocID() string {
	return v.docID
}

// Content returns the loaded content.
func (v *View) Content() string {
	return v.content
}
