package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/config"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// --- Mocks ---

type mockRetriever struct {
	result    domain.RetrievalResult
	diag      domain.Diagnostics
	err       error
	lastQuery string
	lastOpts  domain.RetrieveOptions
}

func (m *mockRetriever) Retrieve(_ context.Context, q string, opts domain.RetrieveOptions) (domain.RetrievalResult, error) {
	m.lastQuery, m.lastOpts = q, opts
	return m.result, m.err
}

func (m *mockRetriever) Diagnose(_ context.Context, q string) (domain.Diagnostics, error) {
	d := m.diag
	d.Query = q
	return d, m.err
}

type mockPrompts struct {
	prompt domain.Prompt
}

func (m *mockPrompts) BuildPrompt(context.Context, string, domain.RetrieveOptions) (domain.Prompt, error) {
	return m.prompt, nil
}

type mockIngestor struct {
	data     []byte
	filename string
	err      error
}

func (m *mockIngestor) IngestUpload(_ context.Context, data []byte, filename string) (string, error) {
	m.data, m.filename = data, filename
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("Ingested %s (%d bytes)", filename, len(data)), nil
}

type syncCall struct {
	url, branch string
	force       bool
}

type mockSync struct {
	outcome  domain.SyncOutcome
	outcomes []domain.SyncOutcome
	statuses []driving.SourceStatus
	err      error
	calls    []syncCall
	allCalls int
}

func (m *mockSync) Sync(_ context.Context, url, branch string, opts driving.SyncOptions) (domain.SyncOutcome, error) {
	m.calls = append(m.calls, syncCall{url, branch, opts.Force})
	return m.outcome, m.err
}

func (m *mockSync) SyncAll(_ context.Context, opts driving.SyncOptions) ([]domain.SyncOutcome, error) {
	m.allCalls++
	return m.outcomes, m.err
}

func (m *mockSync) Status(context.Context) ([]driving.SourceStatus, error) {
	return m.statuses, m.err
}

type mockDocuments struct {
	docs    []domain.DocumentRecord
	removed []string
}

func (m *mockDocuments) Document(_ context.Context, id string) (*domain.DocumentRecord, error) {
	for i := range m.docs {
		if m.docs[i].DocID == id {
			return &m.docs[i], nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
}

func (m *mockDocuments) Documents(context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, nil
}

func (m *mockDocuments) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return nil
}

type mockFiles struct {
	refs  []driving.ComponentRef
	names []string
}

func (m *mockFiles) ComponentsList(context.Context) (string, error) { return "# Components", nil }
func (m *mockFiles) StyleGuide(context.Context) (string, error)     { return "# Style", nil }

func (m *mockFiles) ComponentCode(_ context.Context, refs []driving.ComponentRef) (string, error) {
	m.refs = refs
	return "code", nil
}

func (m *mockFiles) ComponentMetadata(_ context.Context, names []string) (string, error) {
	m.names = names
	return "meta", nil
}

// --- Helpers ---

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	oldSvc, oldOwned, oldBootstrap := svc, ownedSvc, bootstrap
	svc, ownedSvc, bootstrap = s, false, nil
	t.Cleanup(func() {
		svc, ownedSvc, bootstrap = oldSvc, oldOwned, oldBootstrap
	})
}

// resetFlags restores every flag to its default so tests don't leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// --- Tests ---

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docsync", rootCmd.Use)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"sync", "status", "retrieve", "prompt", "ingest", "documents",
		"remove", "files", "serve", "mcp", "tui", "config", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRequireServices_NotConfigured(t *testing.T) {
	withServices(t, nil)

	_, err := execute(t, "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "services not configured")
}

func TestExecute_BootstrapsOnceAndCloses(t *testing.T) {
	withServices(t, nil)
	retriever := &mockRetriever{result: domain.RetrievalResult{Context: "ctx", SourceFiles: "a.md"}}
	closed, built := 0, 0
	var gotCfg *config.Config
	SetBootstrap(func(_ context.Context, cfg *config.Config, log *logger.Logger) (*Services, error) {
		built++
		gotCfg = cfg
		require.NotNil(t, log)
		return &Services{
			Config:    cfg,
			Retriever: retriever,
			Close:     func() error { closed++; return nil },
		}, nil
	})
	path := writeConfig(t, "[index]\nbackend = \"memory\"\n\n[retrieval]\nmax_results = 7\n")

	resetFlags(rootCmd)
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"--config", path, "retrieve", "how", "to", "install"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, built)
	assert.Equal(t, 1, closed)
	assert.Nil(t, svc)
	require.NotNil(t, gotCfg)
	assert.Equal(t, config.BackendMemory, gotCfg.Index.Backend)
	assert.Equal(t, 7, retriever.lastOpts.MaxResults)
	assert.Equal(t, "how to install", retriever.lastQuery)
}

func TestExecute_BootstrapError(t *testing.T) {
	withServices(t, nil)
	SetBootstrap(func(context.Context, *config.Config, *logger.Logger) (*Services, error) {
		return nil, domain.ErrConfiguration
	})
	path := writeConfig(t, "")

	_, err := execute(t, "--config", path, "status")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Contains(t, err.Error(), "starting docsync")
}

func TestSetVersion(t *testing.T) {
	old := version
	defer func() { version = old }()

	SetVersion("")
	assert.Equal(t, old, version)
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", maskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestReadPassword_FallsBackToLine(t *testing.T) {
	assert.Equal(t, "secret", readPassword(bytes.NewBufferString("  secret \nmore")))
}
