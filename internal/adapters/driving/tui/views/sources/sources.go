// Package sources provides the repository sync view for the TUI.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// ErrNoSyncCoordinator indicates that no sync coordinator was provided.
var ErrNoSyncCoordinator = errors.New("sync not available")

// View shows configured repositories and triggers syncs.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.List
	statusbar *status.Bar
	sync      driving.SyncCoordinator
	ctx       context.Context

	statuses []driving.SourceStatus
	syncing  bool
	err      error
	width    int
	height   int
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, km *keymap.KeyMap, sync driving.SyncCoordinator) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		list:      list.New(s, "Repositories", "No repositories configured. Add one with: docsync config set repos ..."),
		statusbar: status.NewBar(s, km.SourcesHelp()),
		sync:      sync,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// SetContext sets the context used for sync calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the sync status.
func (v *View) Init() tea.Cmd {
	v.statusbar.Set(status.StateWorking, "Loading status...")
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, sync := v.ctx, v.sync
	return func() tea.Msg {
		if sync == nil {
			return messages.StatusLoaded{Err: ErrNoSyncCoordinator}
		}
		st, err := sync.Status(ctx)
		return messages.StatusLoaded{Statuses: st, Err: err}
	}
}

// syncOne forces a sync of one repository branch.
func (v *View) syncOne(src domain.Source) tea.Cmd {
	ctx, sync := v.ctx, v.sync
	return func() tea.Msg {
		if sync == nil {
			return messages.SyncCompleted{Err: ErrNoSyncCoordinator}
		}
		out, err := sync.Sync(ctx, src.URL, src.Branch, driving.SyncOptions{Force: true})
		if err != nil && out.State == "" {
			return messages.SyncCompleted{Err: err}
		}
		return messages.SyncCompleted{Outcomes: []domain.SyncOutcome{out}, Err: err}
	}
}

func (v *View) syncAll() tea.Cmd {
	ctx, sync := v.ctx, v.sync
	return func() tea.Msg {
		if sync == nil {
			return messages.SyncCompleted{Err: ErrNoSyncCoordinator}
		}
		out, err := sync.SyncAll(ctx, driving.SyncOptions{Force: true})
		return messages.SyncCompleted{Outcomes: out, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatusLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.Set(status.StateError, msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.statuses = msg.Statuses
		v.list.SetItems(toItems(msg.Statuses))
		if !v.syncing {
			v.statusbar.Set(status.StateReady, fmt.Sprintf("%d repositories", len(msg.Statuses)))
		}
		return v, nil

	case messages.SyncStarted:
		v.syncing = true
		target := msg.Source
		if target == "" {
			target = "all repositories"
		}
		v.statusbar.Set(status.StateWorking, "Syncing "+target+"...")
		return v, nil

	case messages.SyncCompleted:
		v.syncing = false
		if msg.Err != nil {
			v.statusbar.Set(status.StateError, "Sync failed: "+msg.Err.Error())
		} else {
			v.statusbar.Set(status.StateDone, summarize(msg.Outcomes))
		}
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.Init()

	case keymap.Matches(k, v.keymap.SyncAll):
		if v.syncing {
			return v, nil
		}
		v.Update(messages.SyncStarted{})
		return v, v.syncAll()

	case keymap.Matches(k, v.keymap.Sync):
		if v.syncing {
			return v, nil
		}
		i := v.list.Selected()
		if i < 0 || i >= len(v.statuses) {
			return v, nil
		}
		src := v.statuses[i].Source
		v.Update(messages.SyncStarted{Source: src.ID()})
		return v, v.syncOne(src)
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func toItems(statuses []driving.SourceStatus) []list.Item {
	items := make([]list.Item, len(statuses))
	for i, st := range statuses {
		var detail []string
		if st.Revision != "" {
			detail = append(detail, "rev "+shortRev(st.Revision))
		}
		if st.LastSync.IsZero() {
			detail = append(detail, "never synced")
		} else {
			detail = append(detail, "synced "+st.LastSync.Local().Format(time.DateTime))
		}
		if n := len(st.FailedFiles); n > 0 {
			detail = append(detail, fmt.Sprintf("%d failed", n))
		}

		badge := ""
		switch {
		case st.Running:
			badge = "syncing"
		case st.LastOutcome != nil:
			badge = string(st.LastOutcome.State)
		}

		items[i] = list.Item{
			ID:     st.Source.ID(),
			Title:  st.Source.URL + " (" + st.Source.Branch + ")",
			Detail: strings.Join(detail, " · "),
			Badge:  badge,
		}
	}
	return items
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// summarize condenses outcomes into one status line.
func summarize(outcomes []domain.SyncOutcome) string {
	switch len(outcomes) {
	case 0:
		return "No repositories configured"
	case 1:
		o := outcomes[0]
		if o.State == domain.SyncCompleted {
			return fmt.Sprintf("%s: %d ingested, %d removed", o.Message(), o.FilesIngested, o.FilesRemoved)
		}
		return o.Message()
	}
	var ingested, removed, failed int
	for _, o := range outcomes {
		ingested += o.FilesIngested
		removed += o.FilesRemoved
		if o.State == domain.SyncFailed {
			failed++
		}
	}
	msg := fmt.Sprintf("Synced %d repositories: %d ingested, %d removed", len(outcomes), ingested, removed)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	return msg
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sources"))
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

// Syncing reports whether a sync triggered from this view is running.
func (v *View) Syncing() bool {
	return v.syncing
}
