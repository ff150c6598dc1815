// Package list provides a navigable list component for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
)

// Item is one row of the list.
type Item struct {
	// ID identifies the row to the owning view.
	ID string

	Title  string
	Detail string

	// Badge is shown right of the title, e.g. a state or size.
	Badge string
}

// List displays items with a movable cursor.
type List struct {
	title    string
	empty    string
	items    []Item
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// New creates a list headed by title. empty is shown when there are no items.
func New(s *styles.Styles, title, empty string) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &List{title: title, empty: empty, styles: s, width: 80, height: 10}
}

// Update handles navigation keys.
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			l.selected = max(len(l.items)-1, 0)
		}
	}
	return l, nil
}

// View renders the visible window of items around the cursor.
func (l *List) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render(l.empty)
	}

	lines := []string{l.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", l.title, len(l.items))), ""}

	// Each item takes two lines.
	visible := max((l.height-2)/2, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.items))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i))
	}
	return strings.Join(lines, "\n")
}

func (l *List) renderItem(i int) string {
	item := l.items[i]
	titleWidth := max(l.width-len(item.Badge)-6, 10)
	title := truncate(item.Title, titleWidth)

	var head string
	if i == l.selected {
		head = l.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", titleWidth, title, item.Badge))
	} else {
		head = l.styles.Normal.Render(fmt.Sprintf("  %-*s  ", titleWidth, title)) +
			l.styles.Muted.Render(item.Badge)
	}
	detail := l.styles.Muted.Render("    " + truncate(item.Detail, max(l.width-6, 20)))
	return head + "\n" + detail
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetItems replaces the items, keeping the cursor in range.
func (l *List) SetItems(items []Item) {
	l.items = items
	if l.selected >= len(items) {
		l.selected = max(len(items)-1, 0)
	}
}

func (l *List) Items() []Item { return l.items }
func (l *List) Selected() int { return l.selected }
func (l *List) Count() int    { return len(l.items) }

// SelectedItem returns the item under the cursor, or nil for an empty list.
func (l *List) SelectedItem() *Item {
	if len(l.items) == 0 {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves the cursor up.
func (l *List) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the cursor down.
func (l *List) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *List) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}
