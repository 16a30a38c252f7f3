package provider

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ModelInfoSource = (*StaticModelInfo)(nil)

// StaticModelInfo serves published context windows for providers whose
// listing APIs do not report them.
type StaticModelInfo struct {
	source  string
	windows map[string]int
}

// NewStaticModelInfo creates a source backed by a fixed table.
// A nil table uses domain.KnownContextWindows.
func NewStaticModelInfo(source string, windows map[string]int) *StaticModelInfo {
	if windows == nil {
		windows = domain.KnownContextWindows()
	}
	return &StaticModelInfo{source: source, windows: windows}
}

// Source returns the provider name.
func (s *StaticModelInfo) Source() string {
	return s.source
}

// FetchModelInfo returns the table entry for modelID.
func (s *StaticModelInfo) FetchModelInfo(_ context.Context, modelID string) (map[string]any, error) {
	n, ok := s.windows[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s model %q", domain.ErrNotFound, s.source, modelID)
	}
	return map[string]any{domain.AttrContextWindow: n}, nil
}
