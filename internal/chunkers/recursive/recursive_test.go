package recursive

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(0, 0, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = New(10, 10, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	c, err := New(10, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeparators, c.separators)
	assert.Equal(t, Method, c.Method())
}

func TestChunker_PrefersParagraphs(t *testing.T) {
	c, err := New(25, 0, nil)
	require.NoError(t, err)

	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird."
	chunks, err := c.Chunk(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"First paragraph here.\n\n",
		"Second paragraph here.\n\n",
		"Third.",
	}, chunks)
}

func TestChunker_CoverageWithoutOverlap(t *testing.T) {
	c, err := New(20, 0, nil)
	require.NoError(t, err)

	text := "The quick brown fox jumps over the lazy dog.\nPack my box with five dozen liquor jugs.\n\n" +
		strings.Repeat("x", 55)
	chunks, err := c.Chunk(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 20, chunk)
	}
}

func TestChunker_CarriesOverlap(t *testing.T) {
	c, err := New(10, 4, []string{" "})
	require.NoError(t, err)

	chunks, err := c.Chunk(context.Background(), "aa bb cc dd ee")
	require.NoError(t, err)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		assert.True(t, strings.HasPrefix(chunks[i], prevWords[len(prevWords)-1]),
			"chunk %q should start with the tail of %q", chunks[i], chunks[i-1])
	}
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
	}
}

func TestChunker_HardSplitsUnbreakable(t *testing.T) {
	c, err := New(4, 0, []string{" "})
	require.NoError(t, err)

	chunks, err := c.Chunk(context.Background(), "abcdefghij")
	require.NoError(t, err)

	assert.Equal(t, []string{"abcd", "efgh", "ij"}, chunks)
}

func TestChunker_Empty(t *testing.T) {
	c, _ := New(10, 0, nil)

	chunks, err := c.Chunk(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
