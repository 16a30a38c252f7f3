package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

func TestWatcher_EmitsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sources, err := New(50*time.Millisecond).Watch(ctx, dir)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("skip"), 0o644)
		_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644)
	}()

	select {
	case src := <-sources:
		assert.Equal(t, "notes.txt", src.Name)
		data, err := io.ReadAll(src.Reader)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for file")
	}

	cancel()
	for range sources {
	}
}

func TestWatcher_RejectsMissingDirectory(t *testing.T) {
	_, err := New(0).Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	hidden := filepath.Join(dir, ".a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create", fsnotify.Event{Name: file, Op: fsnotify.Create}, true},
		{"write with chmod", fsnotify.Event{Name: file, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Remove}, false},
		{"hidden", fsnotify.Event{Name: hidden, Op: fsnotify.Create}, false},
		{"directory", fsnotify.Event{Name: dir, Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := relevant(tt.event)
			assert.Equal(t, tt.want, ok)
		})
	}
}
