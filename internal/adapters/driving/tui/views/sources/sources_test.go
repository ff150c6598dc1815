package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

type stubSync struct {
	statuses []driving.SourceStatus
	outcome  domain.SyncOutcome
	err      error
	synced   []string
	all      int
}

func (s *stubSync) Sync(_ context.Context, url, branch string, opts driving.SyncOptions) (domain.SyncOutcome, error) {
	s.synced = append(s.synced, url+"@"+branch)
	if !opts.Force {
		return domain.SyncOutcome{}, errors.New("expected forced sync")
	}
	return s.outcome, s.err
}

func (s *stubSync) SyncAll(context.Context, driving.SyncOptions) ([]domain.SyncOutcome, error) {
	s.all++
	return []domain.SyncOutcome{s.outcome, s.outcome}, s.err
}

func (s *stubSync) Status(context.Context) ([]driving.SourceStatus, error) {
	return s.statuses, nil
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newStub() *stubSync {
	return &stubSync{
		statuses: []driving.SourceStatus{
			{
				Source:   domain.Source{URL: "https://github.com/acme/docs", Branch: "main"},
				LastSync: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				Revision: "0123456789abcdef",
			},
			{
				Source:      domain.Source{URL: "https://github.com/acme/ui", Branch: "dev"},
				FailedFiles: []string{"broken.pdf"},
			},
		},
		outcome: domain.SyncOutcome{State: domain.SyncCompleted, FilesIngested: 3, FilesRemoved: 1},
	}
}

func loaded(t *testing.T, s *stubSync) *View {
	t.Helper()
	v := NewView(nil, nil, s)
	v.SetDimensions(120, 30)
	v.Update(v.Init()())
	return v
}

func TestView_ListsRepositories(t *testing.T) {
	v := loaded(t, newStub())

	out := v.View()
	assert.Contains(t, out, "https://github.com/acme/docs (main)")
	assert.Contains(t, out, "rev 0123456")
	assert.Contains(t, out, "never synced")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "2 repositories")
}

func TestView_SyncSelected(t *testing.T) {
	stub := newStub()
	v := loaded(t, stub)
	v.Update(key('j'))

	_, cmd := v.Update(key('s'))
	require.NotNil(t, cmd)
	assert.True(t, v.Syncing())

	// A second request while one is running is ignored.
	_, again := v.Update(key('s'))
	assert.Nil(t, again)

	_, reload := v.Update(cmd())
	require.NotNil(t, reload)
	v.Update(reload())

	assert.Equal(t, []string{"https://github.com/acme/ui@dev"}, stub.synced)
	assert.False(t, v.Syncing())
	assert.Contains(t, v.View(), "Sync successful: 3 ingested, 1 removed")
}

func TestView_SyncAll(t *testing.T) {
	stub := newStub()
	v := loaded(t, stub)

	_, cmd := v.Update(key('S'))
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, 1, stub.all)
	assert.Contains(t, v.View(), "Synced 2 repositories: 6 ingested, 2 removed")
}

func TestView_SyncError(t *testing.T) {
	stub := newStub()
	stub.outcome = domain.SyncOutcome{}
	stub.err = errors.New("github unreachable")
	v := loaded(t, stub)

	_, cmd := v.Update(key('s'))
	v.Update(cmd())

	assert.Contains(t, v.View(), "Sync failed: github unreachable")
}

func TestView_NilCoordinator(t *testing.T) {
	v := NewView(nil, nil, nil)

	v.Update(v.Init()())

	assert.Contains(t, v.View(), ErrNoSyncCoordinator.Error())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := NewView(nil, nil, newStub())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "No repositories configured", summarize(nil))
	assert.Equal(t, "No sync needed", summarize([]domain.SyncOutcome{{State: domain.SyncUnchanged}}))
	assert.Equal(t, "Synced 2 repositories: 0 ingested, 0 removed, 1 failed",
		summarize([]domain.SyncOutcome{{State: domain.SyncFailed}, {State: domain.SyncUnchanged}}))
}
