// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
)

const (
	defaultCharLimit = 512
	minInputWidth    = 20
)

// QueryInput wraps a bubbles textinput with a styled label.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewQueryInput creates a focused input labelled label.
func NewQueryInput(s *styles.Styles, label, placeholder string) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = defaultCharLimit
	ti.Width = 50
	ti.Focus()

	return &QueryInput{textinput: ti, styles: s, label: label, width: 50}
}

// Init starts the cursor blinking.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the label and input.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render(q.label + " ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

func (q *QueryInput) Value() string         { return q.textinput.Value() }
func (q *QueryInput) SetValue(value string) { q.textinput.SetValue(value) }
func (q *QueryInput) Focus() tea.Cmd        { return q.textinput.Focus() }
func (q *QueryInput) Blur()                 { q.textinput.Blur() }
func (q *QueryInput) Focused() bool         { return q.textinput.Focused() }
func (q *QueryInput) Reset()                { q.textinput.Reset() }
func (q *QueryInput) Width() int            { return q.width }

// SetWidth sets the total width, leaving room for the label and border.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-len(q.label)-6, minInputWidth)
}
