package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// replayWatcher emits a fixed list of sources and closes.
type replayWatcher struct {
	sources []domain.Source
	dir     string
}

func (w *replayWatcher) Watch(_ context.Context, dir string) (<-chan domain.Source, error) {
	w.dir = dir
	ch := make(chan domain.Source, len(w.sources))
	for _, s := range w.sources {
		ch <- s
	}
	close(ch)
	return ch, nil
}

func TestLibraryService_Domains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.library.CreateDomain(ctx, "  physics ")
	require.NoError(t, err)
	assert.Equal(t, "physics", d.Name)

	_, err = f.library.CreateDomain(ctx, "physics")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.library.CreateDomain(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	byName, err := f.library.ResolveDomain(ctx, "physics")
	require.NoError(t, err)
	byID, err := f.library.ResolveDomain(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byID.ID)

	require.NoError(t, f.library.RenameDomain(ctx, d.ID, "mechanics"))
	_, err = f.library.ResolveDomain(ctx, "physics")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	domains, err := f.library.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "mechanics", domains[0].Name)

	require.NoError(t, f.library.DeleteDomain(ctx, d.ID))
	domains, err = f.library.ListDomains(ctx)
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestLibraryService_DeleteDomainWithTexts(t *testing.T) {
	f := newFixture(t)
	d, _ := f.addText(t, "docs", "sample", sampleText)

	err := f.library.DeleteDomain(context.Background(), d.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLibraryService_ExtractAndSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.library.CreateDomain(ctx, "docs")
	require.NoError(t, err)

	src := domain.Source{Name: "notes/Lecture 1.md", Reader: strings.NewReader("# Waves\r\nA wave carries energy.")}
	text, err := f.library.ExtractAndSave(ctx, d.ID, src, "", domain.TextTypeOriginal)
	require.NoError(t, err)
	assert.Equal(t, "Lecture 1", text.Name)
	assert.Equal(t, "notes/Lecture 1.md", text.OriginalName)

	got, err := f.library.GetText(ctx, text.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Waves\nA wave carries energy.", got.Content)

	_, err = f.library.ExtractAndSave(ctx, d.ID, domain.Source{Name: "deck.pptx", Reader: strings.NewReader("x")}, "", "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = f.library.ExtractAndSave(ctx, d.ID, domain.Source{Name: "blank.txt", Reader: strings.NewReader("  \n")}, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLibraryService_Texts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, original := f.addText(t, "docs", "sample", sampleText)

	dup := &domain.ExtractedText{DomainID: d.ID, Name: "sample", Content: "again"}
	assert.ErrorIs(t, f.library.SaveText(ctx, dup), domain.ErrConflict)

	edited := &domain.ExtractedText{DomainID: d.ID, Name: "sample", Type: domain.TextTypeEdited, Content: "Hello."}
	require.NoError(t, f.library.SaveText(ctx, edited))

	bad := &domain.ExtractedText{DomainID: d.ID, Name: "x", Type: "draft", Content: "x"}
	assert.ErrorIs(t, f.library.SaveText(ctx, bad), domain.ErrValidation)

	require.NoError(t, f.library.UpdateText(ctx, edited.ID, "Hello again."))
	got, err := f.library.GetText(ctx, edited.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again.", got.Content)

	texts, err := f.library.ListTexts(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, texts, 2)

	cp := f.chunk(t, original.ID, 10)
	require.NoError(t, f.library.DeleteText(ctx, original.ID))
	_, err = f.pipeline.GetChunkProcess(ctx, cp.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "deleting a text removes its chunk processes")

	require.NoError(t, f.library.DeleteTexts(ctx, []string{edited.ID}))
	texts, err = f.library.ListTexts(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestLibraryService_WatchFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.library.CreateDomain(ctx, "inbox")
	require.NoError(t, err)

	w := &replayWatcher{sources: []domain.Source{
		{Name: "/in/a.txt", Reader: strings.NewReader("first draft")},
		{Name: "/in/image.png", Reader: strings.NewReader("binary")},
		{Name: "/in/a.txt", Reader: strings.NewReader("second draft")},
	}}
	library := NewLibraryService(f.store, f.store, f.library.extractor, w)

	var saved []*domain.ExtractedText
	err = library.WatchFolder(ctx, d.ID, "/in", func(text *domain.ExtractedText, err error) {
		require.NoError(t, err)
		saved = append(saved, text)
	})
	require.NoError(t, err)
	assert.Equal(t, "/in", w.dir)

	require.Len(t, saved, 2, "unsupported files are skipped")
	assert.Equal(t, saved[0].ID, saved[1].ID, "rewritten files update the original text")
	assert.Equal(t, "second draft", saved[1].Content)

	texts, err := library.ListTexts(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, texts, 1)
}

func TestLibraryService_WatchFolder_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.library.WatchFolder(ctx, "any", "/in", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	library := NewLibraryService(f.store, f.store, f.library.extractor, &replayWatcher{})
	err = library.WatchFolder(ctx, "missing", "/in", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
