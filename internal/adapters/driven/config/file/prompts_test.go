package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docsync", "prompts"), store.Dir())
}

func TestNewPromptStore_NoIOUntilLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)

	for _, f := range []string{"system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSystemPrompt, prompt)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("Answer like a pirate."), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, "Answer like a pirate.", prompt)
}

func TestPromptStore_Load_EmptyFileUsesDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("  \n"), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSystemPrompt, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSystemPrompt, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_CachesResults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt1, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("modified"), 0600))

	prompt2, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("modified"), 0600))

	store.Reload()
	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, "modified", prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]string, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptSystem)
			assert.NoError(t, err)
			results[i] = p
		}()
	}
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, results[0], p)
	}
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("mine"), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptSystem)

	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("\n\n  prompt content  \n\n"), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, "prompt content", prompt)
}
