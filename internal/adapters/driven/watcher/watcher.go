// Package watcher reports new files in a folder using fsnotify.
package watcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// Verify interface compliance.
var _ driven.FolderWatcher = (*Watcher)(nil)

// DefaultSettle is how long a file must go without events before it is read.
const DefaultSettle = 500 * time.Millisecond

// Watcher watches a single directory, non-recursively.
type Watcher struct {
	settle time.Duration
}

// New creates a watcher. A non-positive settle uses DefaultSettle.
func New(settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{settle: settle}
}

// Watch starts watching dir.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan domain.Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: watch folder: %w", domain.ErrValidation, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrValidation, dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	out := make(chan domain.Source)
	go w.run(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.Source) {
	defer close(out)
	defer fsw.Close()

	pending := map[string]time.Time{}

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if path, ok := relevant(event); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)

		case now := <-ticker.C:
			var ready []string
			for path, seen := range pending {
				if now.Sub(seen) >= w.settle {
					ready = append(ready, path)
					delete(pending, path)
				}
			}

			for _, path := range ready {
				src, ok := readSource(path)
				if !ok {
					continue
				}
				select {
				case out <- src:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// relevant reports whether an event is a create or write of a visible file.
func relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

func readSource(path string) (domain.Source, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watcher: reading %s: %v", path, err)
		return domain.Source{}, false
	}
	return domain.Source{Name: filepath.Base(path), Reader: bytes.NewReader(data)}, true
}
