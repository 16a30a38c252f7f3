package domain

import "time"

// ModelInfo is cached metadata about a remote model.
type ModelInfo struct {
	// Source is the provider (e.g., "ollama").
	Source string

	// ModelID is the provider's model identifier.
	ModelID string

	// Attributes holds provider-reported facts such as the context window.
	Attributes map[string]any

	// UpdatedAt is when the attributes were last fetched.
	UpdatedAt time.Time
}

// AttrContextWindow is the attribute key for a model's token budget.
const AttrContextWindow = "context_window"

// ContextWindow returns the cached context window, if known.
func (m ModelInfo) ContextWindow() (int, bool) {
	n := IntParam(m.Attributes, AttrContextWindow)
	return n, n > 0
}
