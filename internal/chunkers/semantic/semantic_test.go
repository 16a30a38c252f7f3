package semantic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// fakeSplitter splits after every ". ".
type fakeSplitter struct{}

func (fakeSplitter) Split(text string) []string {
	var out []string
	for _, s := range strings.SplitAfter(text, ". ") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, fakeSplitter{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = New(10, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestChunker_PacksSentences(t *testing.T) {
	c, err := New(20, fakeSplitter{})
	require.NoError(t, err)

	text := "One two. Three four. Five. Six seven eight nine ten."
	chunks, err := c.Chunk(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"One two. ",
		"Three four. Five. ",
		"Six seven eight nine ten.",
	}, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunker_FlushesBeforeOverflow(t *testing.T) {
	c, err := New(12, fakeSplitter{})
	require.NoError(t, err)

	chunks, err := c.Chunk(context.Background(), "Aaaa. Bbbb. Cccc. ")
	require.NoError(t, err)

	assert.Equal(t, []string{"Aaaa. Bbbb. ", "Cccc. "}, chunks)
}

func TestChunker_OversizeSentenceStandsAlone(t *testing.T) {
	c, err := New(5, fakeSplitter{})
	require.NoError(t, err)

	chunks, err := c.Chunk(context.Background(), "Hi. A very long sentence. Ok.")
	require.NoError(t, err)

	assert.Equal(t, []string{"Hi. ", "A very long sentence. ", "Ok."}, chunks)
}

func TestChunker_Empty(t *testing.T) {
	c, _ := New(10, fakeSplitter{})

	chunks, err := c.Chunk(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestAlignSentences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		detected []string
		want     []string
	}{
		{
			name:     "keeps whitespace between sentences",
			text:     "First one.  Second one.\nThird.",
			detected: []string{"First one.", "Second one.", "Third."},
			want:     []string{"First one.  ", "Second one.\n", "Third."},
		},
		{
			name:     "trailing text is kept",
			text:     "Only. tail",
			detected: []string{"Only."},
			want:     []string{"Only. tail"},
		},
		{
			name:     "unknown sentence is folded",
			text:     "A. B.",
			detected: []string{"A.", "missing", "B."},
			want:     []string{"A. ", "B."},
		},
		{
			name:     "nothing detected",
			text:     "no punctuation",
			detected: nil,
			want:     []string{"no punctuation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alignSentences(tt.text, tt.detected)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, strings.Join(got, ""))
		})
	}
}

func TestNewSplitter_UnknownLanguage(t *testing.T) {
	_, err := NewSplitter("klingon")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
