package driven

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// FolderWatcher reports files that appear or change in a directory.
type FolderWatcher interface {
	// Watch emits a source for each new or rewritten file once its size has
	// settled. The channel closes when ctx is cancelled.
	Watch(ctx context.Context, dir string) (<-chan domain.Source, error)
}
