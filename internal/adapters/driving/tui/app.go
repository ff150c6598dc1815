package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/views/retrieve"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/views/sources"
	"github.com/custodia-labs/docsync/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView       *menu.View
	retrieveView   *retrieve.View
	sourcesView    *sources.View
	documentsView  *documents.View
	docContentView *doccontent.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	opts := ports.Defaults
	if opts.MaxResults == 0 {
		opts = domain.DefaultRetrieveOptions()
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s),
		retrieveView:   retrieve.NewView(s, km, ports.Retriever, opts),
		sourcesView:    sources.NewView(s, km, ports.Sync),
		documentsView:  documents.NewView(s, km, ports.Documents),
		docContentView: doccontent.NewView(s, ports.Documents),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context passed to every port call.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.retrieveView.SetContext(ctx)
	a.sourcesView.SetContext(ctx)
	a.documentsView.SetContext(ctx)
	a.docContentView.SetContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("docsync")
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewRetrieve:
			a.retrieveView.Reset()
			return a, a.retrieveView.Init()
		case messages.ViewSources:
			return a, a.sourcesView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewMenu, messages.ViewDocContent, messages.ViewHelp:
		}
		return a, nil

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg.DocID)

	case messages.RetrieveCompleted:
		a.err = msg.Err
		a.retrieveView, cmd = a.retrieveView.Update(msg)
		return a, cmd

	case messages.StatusLoaded, messages.SyncStarted, messages.SyncCompleted:
		// Sync results land even after the user navigated away.
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentRemoved:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil
	}

	return a, a.forward(msg)
}

// forward hands msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewRetrieve:
		a.retrieveView, cmd = a.retrieveView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewRetrieve:
		return a.retrieveView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Retrieve:
  (type)      Enter a question
  enter       Retrieve context
  n           New query
  e           Toggle retrieval diagnostics

Sources:
  s           Sync selected repository
  S           Sync all repositories
  r           Refresh status

Documents:
  enter       Show content
  d d         Remove from index
  r           Refresh list

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.retrieveView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
}
