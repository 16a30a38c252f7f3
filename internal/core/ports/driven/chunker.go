package driven

import "context"

// Chunker splits text into an ordered sequence of chunks.
// Implementations are deterministic for a given input and parameter set
// and never drop characters.
type Chunker interface {
	// Method returns the strategy name the chunker was built from.
	Method() string

	// Chunk splits text. The context is checked between pieces so long
	// inputs can be interrupted.
	Chunk(ctx context.Context, text string) ([]string, error)
}
