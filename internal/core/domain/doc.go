// Package domain defines the core business entities for ragbench.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Domain: A named namespace grouping extracted texts
//   - ExtractedText: The text extracted from one uploaded document
//   - ChunkProcess / Chunk: One chunking run over a text and its output
//   - EmbeddingProcess / Embedding: One embedding run over a chunk process
//   - Strategy: The declarative parameter schema of a pluggable method
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
