// Package retrieve provides the query view: a question goes in, the
// assembled documentation context comes out.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// ErrNoRetriever indicates that no retriever was provided.
var ErrNoRetriever = errors.New("retriever is required")

// reserved is the number of lines taken by the header, input, sources and status bar.
const reserved = 10

// View is the retrieval view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	viewport  viewport.Model
	statusbar *status.Bar

	retriever driving.Retriever
	opts      domain.RetrieveOptions
	ctx       context.Context

	result      *domain.RetrievalResult
	diagnostics *domain.Diagnostics
	explain     bool
	err         error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates a retrieval view. Zero opts use the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap, retriever driving.Retriever, opts domain.RetrieveOptions) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if opts.MaxResults == 0 {
		opts = domain.DefaultRetrieveOptions()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, "Ask:", "How do I configure the button component?"),
		viewport:   viewport.New(80, 24-reserved),
		statusbar:  status.NewBar(s, km.ShortHelp()),
		retriever:  retriever,
		opts:       opts,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// SetContext sets the context used for retrieval calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the retrieval view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RetrieveCompleted:
		v.handleCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return v, nil
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.statusbar.Set(status.StateWorking, "Retrieving...")
			v.focusInput = false
			v.input.Blur()
			return v, v.retrieve(query, v.explain)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		v.statusbar.SetHints(v.keymap.ShortHelp())
		return v, v.input.Focus()

	case keymap.Matches(msg.String(), v.keymap.Explain):
		v.explain = !v.explain
		if v.explain && v.diagnostics == nil && v.result != nil {
			v.statusbar.Set(status.StateWorking, "Diagnosing...")
			return v, v.retrieve(v.input.Value(), true)
		}
		v.render()
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// retrieve returns a command running the query, with diagnostics when explain is set.
func (v *View) retrieve(query string, explain bool) tea.Cmd {
	ctx, retriever, opts := v.ctx, v.retriever, v.opts
	return func() tea.Msg {
		if retriever == nil {
			return messages.ErrorOccurred{Err: ErrNoRetriever}
		}
		res, err := retriever.Retrieve(ctx, query, opts)
		if err != nil {
			return messages.RetrieveCompleted{Query: query, Err: err}
		}
		done := messages.RetrieveCompleted{Query: query, Result: res}
		if explain {
			d, err := retriever.Diagnose(ctx, query)
			if err != nil {
				return messages.RetrieveCompleted{Query: query, Err: err}
			}
			done.Diagnostics = &d
		}
		return done
	}
}

func (v *View) handleCompleted(msg messages.RetrieveCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Set(status.StateError, msg.Err.Error())
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.result = &msg.Result
	v.diagnostics = msg.Diagnostics
	v.focusInput = false
	v.input.Blur()

	if msg.Result.Context == "" {
		v.statusbar.Set(status.StateReady, "No relevant documentation found")
	} else {
		v.statusbar.Set(status.StateDone, fmt.Sprintf("%d characters from %d files",
			len(msg.Result.Context), len(msg.Result.Sources())))
	}
	v.statusbar.SetHints(v.keymap.ResultsHelp())
	v.render()
	v.viewport.GotoTop()
}

// render fills the viewport with the context and, when explaining, the diagnostics.
func (v *View) render() {
	if v.result == nil {
		v.viewport.SetContent("")
		return
	}

	var b strings.Builder
	if v.explain && v.diagnostics != nil {
		b.WriteString(v.renderDiagnostics(*v.diagnostics))
		b.WriteString("\n\n")
	}
	for _, line := range strings.Split(v.result.Context, "\n") {
		if strings.HasPrefix(line, "[File: ") {
			b.WriteString(v.styles.FileHeader.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	v.viewport.SetContent(b.String())
}

func (v *View) renderDiagnostics(d domain.Diagnostics) string {
	lines := []string{
		v.styles.Subtitle.Render("Diagnostics"),
		fmt.Sprintf("normalised query: %q", d.NormalizedQuery),
		fmt.Sprintf("sampled %d hits across %d documents", d.Sampled, d.Documents),
		fmt.Sprintf("scores: mean %s  min %s  max %s",
			v.styles.Score(d.MeanScore).Render(fmt.Sprintf("%.3f", d.MeanScore)),
			v.styles.Score(d.MinScore).Render(fmt.Sprintf("%.3f", d.MinScore)),
			v.styles.Score(d.MaxScore).Render(fmt.Sprintf("%.3f", d.MaxScore))),
	}

	types := make([]string, 0, len(d.ChunkTypes))
	for t, n := range d.ChunkTypes {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)
	lines = append(lines, "chunk types: "+strings.Join(types, " "))
	return strings.Join(lines, "\n")
}

// View renders the retrieval view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("docsync"), "", v.input.View(), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil {
		if src := v.result.Sources(); len(src) > 0 {
			sections = append(sections, v.styles.Muted.Render("Sources: "+strings.Join(src, ", ")), "")
		}
		sections = append(sections, v.viewport.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.viewport.Width = width
	v.viewport.Height = max(height-reserved, 3)
	v.statusbar.SetWidth(width)
	v.render()
}

// Reset returns the view to an empty query.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.result = nil
	v.diagnostics = nil
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetHints(v.keymap.ShortHelp())
	v.render()
}

func (v *View) Query() string                    { return v.input.Value() }
func (v *View) SetQuery(query string)            { v.input.SetValue(query) }
func (v *View) Result() *domain.RetrievalResult  { return v.result }
func (v *View) Diagnostics() *domain.Diagnostics { return v.diagnostics }
func (v *View) Err() error                       { return v.err }
func (v *View) InputFocused() bool               { return v.focusInput }
func (v *View) Ready() bool                      { return v.ready }
