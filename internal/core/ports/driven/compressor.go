package driven

// Compressor reversibly compresses stored text blobs.
// Decompress(Compress(s)) must equal s for every valid UTF-8 string,
// including the empty string.
type Compressor interface {
	// Compress encodes text into a compressed frame.
	Compress(text string) ([]byte, error)

	// Decompress decodes a frame produced by Compress.
	// Corrupt input fails with domain.ErrDecompression and never yields
	// truncated text.
	Decompress(data []byte) (string, error)
}
