package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// NameParam is the parameters key holding a process's display name.
// It is the only parameter that may change after a process is created,
// and it never takes part in the process's configuration identity.
const NameParam = "name"

// BatchSizeParam is the embedding parameter controlling request size.
// It changes how vectors are fetched, not the vectors themselves, so it is
// excluded from the configuration identity too.
const BatchSizeParam = "batch_size"

// ChunkProcess records one application of one chunking strategy with one
// parameter set to one text. It owns its chunks.
type ChunkProcess struct {
	// ID is the unique identifier for the process.
	ID string

	// TextID links to the ExtractedText that was chunked.
	TextID string

	// Method is the chunking strategy name (e.g., "fixed_length").
	Method string

	// Parameters are the resolved strategy parameters plus the display name.
	Parameters map[string]any

	// CreatedAt is when the process was created.
	CreatedAt time.Time
}

// DisplayName returns the user-assigned name, falling back to the method.
func (p ChunkProcess) DisplayName() string {
	return displayName(p.Parameters, p.Method)
}

// Chunk is one contiguous piece of a text produced by a ChunkProcess.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// ProcessID links to the owning ChunkProcess.
	ProcessID string

	// Index is the 0-based position in the original split.
	Index int

	// Content is the chunk text. It is stored compressed.
	Content string
}

// ChunkInput is a chunk to be saved by the ledger.
type ChunkInput struct {
	Index int
	Text  string
}

// EmbeddingProcess records one embedding strategy applied to all chunks
// of one ChunkProcess.
type EmbeddingProcess struct {
	// ID is the unique identifier for the process.
	ID string

	// ChunkProcessID links to the ChunkProcess whose chunks are embedded.
	ChunkProcessID string

	// Method is the embedding strategy name (e.g., "ollama").
	Method string

	// Parameters are the resolved strategy parameters plus the display name.
	Parameters map[string]any

	// ConfigKey identifies the vector space (see ConfigKey).
	ConfigKey string

	// CreatedAt is when the process was created.
	CreatedAt time.Time
}

// DisplayName returns the user-assigned name, falling back to the method.
func (p EmbeddingProcess) DisplayName() string {
	return displayName(p.Parameters, p.Method)
}

// Embedding is the vector for one chunk under one EmbeddingProcess.
// There is at most one per (ProcessID, ChunkID).
type Embedding struct {
	ID        string
	ProcessID string
	ChunkID   string
	Vector    []float32
}

// ConfigKey returns the match key of an embedding configuration.
// Two embedding processes share a vector space exactly when their keys are
// equal. The display name and batch size are excluded so renaming or
// re-batching never changes the key.
func ConfigKey(method string, params map[string]any) string {
	identity := make(map[string]any, len(params))
	for k, v := range params {
		if k == NameParam || k == BatchSizeParam {
			continue
		}
		identity[k] = v
	}
	// json.Marshal sorts map keys, which makes the encoding canonical.
	data, err := json.Marshal(identity)
	if err != nil {
		data = []byte(method)
	}
	sum := sha256.Sum256(data)
	return method + ":" + hex.EncodeToString(sum[:8])
}

func displayName(params map[string]any, fallback string) string {
	if name, ok := params[NameParam].(string); ok && name != "" {
		return name
	}
	return fallback
}
