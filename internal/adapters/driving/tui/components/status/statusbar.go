// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
)

// State represents the current activity shown in the bar.
type State string

const (
	StateReady   State = "ready"
	StateWorking State = "working"
	StateError   State = "error"
	StateDone    State = "done"
)

// Bar displays a status message and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	hints   []key.Binding
	state   State
	message string
	width   int
}

// NewBar creates a status bar showing hints on the right.
func NewBar(s *styles.Styles, hints []key.Binding) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Bar{styles: s, hints: hints, state: StateReady, width: 80}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderHints()
	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateWorking:
		msg := b.message
		if msg == "" {
			msg = "Working..."
		}
		return b.styles.Muted.Render(msg)
	case StateError:
		return b.styles.Error.Render(fmt.Sprintf("Error: %s", b.message))
	case StateDone:
		return b.styles.Success.Render(b.message)
	default:
		if b.message != "" {
			return b.styles.Normal.Render(b.message)
		}
		return b.styles.Muted.Render("Ready")
	}
}

func (b *Bar) renderHints() string {
	hints := make([]string, 0, len(b.hints))
	for _, k := range b.hints {
		h := k.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// Set updates the state and message together.
func (b *Bar) Set(state State, message string) {
	b.state = state
	b.message = message
}

// SetHints replaces the keybinding hints.
func (b *Bar) SetHints(hints []key.Binding) { b.hints = hints }

func (b *Bar) State() State       { return b.state }
func (b *Bar) Message() string    { return b.message }
func (b *Bar) SetWidth(width int) { b.width = width }
func (b *Bar) Clear()             { b.Set(StateReady, "") }
