// Package compress provides the reversible compression applied to stored
// text blobs.
package compress

import (
	"fmt"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Compressor = (*Zstd)(nil)

// Zstd compresses text into zstd frames with content checksums.
// It is safe for concurrent use.
type Zstd struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstd creates a compressor at the default compression level.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderCRC(true),
		zstd.WithZeroFrames(true),
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Zstd{encoder: enc, decoder: dec}, nil
}

// Compress encodes text into a single frame. Empty text still produces a
// full frame so that an empty blob always means corruption. Invalid UTF-8
// is rejected.
func (z *Zstd) Compress(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrValidation)
	}
	return z.encoder.EncodeAll([]byte(text), nil), nil
}

// Decompress decodes a frame produced by Compress.
func (z *Zstd) Decompress(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty input", domain.ErrDecompression)
	}
	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDecompression, err)
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: output is not valid UTF-8", domain.ErrDecompression)
	}
	return string(out), nil
}

// Close releases the encoder and decoder.
func (z *Zstd) Close() error {
	z.decoder.Close()
	return z.encoder.Close()
}
