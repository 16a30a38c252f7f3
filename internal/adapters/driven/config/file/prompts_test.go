package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

var testDefaults = map[string]string{driven.PromptChatSystem: "Answer from the context."}

func newTestStore(t *testing.T) *PromptStore {
	t.Helper()
	store, err := NewPromptStore(t.TempDir(), testDefaults)
	require.NoError(t, err)
	return store
}

func TestNewPromptStore_RequiresDir(t *testing.T) {
	_, err := NewPromptStore("", nil)
	assert.Error(t, err)
}

func TestNewPromptStore_NoIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, dir, store.Dir())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_WritesDefaults(t *testing.T) {
	store := newTestStore(t)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer from the context.", prompt)
	require.NoError(t, store.InitErr())

	data, err := os.ReadFile(filepath.Join(store.Dir(), "chat_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Answer from the context.\n", string(data))
}

func TestPromptStore_Load_PrefersUserFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("  Be brief.\n"), 0o600))

	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", prompt)
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("\n"), 0o600))

	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer from the context.", prompt)
}

func TestPromptStore_Load_Unknown(t *testing.T) {
	_, err := newTestStore(t).Load("nope")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "chat_system.txt"), []byte("Edited."), 0o600))

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer from the context.", prompt, "cached until reload")

	store.Reload()
	prompt, err = store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Edited.", prompt)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptChatSystem)
			assert.NoError(t, err)
			assert.Equal(t, "Answer from the context.", prompt)
		}()
	}
	wg.Wait()
}
