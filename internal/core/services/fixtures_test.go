package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbench/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragbench/internal/chunkers"
	"github.com/custodia-labs/ragbench/internal/compress"
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/embedders"
	"github.com/custodia-labs/ragbench/internal/extractors"
	"github.com/custodia-labs/ragbench/internal/retrievers"
)

// --- Mock implementations ---

// stubEmbedder returns the same vector for every text.
type stubEmbedder struct {
	mu       sync.Mutex
	vector   []float32
	batches  [][]string
	failures []error // returned in order before succeeding
	short    bool    // return one vector too few
	onBatch  func()  // runs after each successful batch
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return nil, err
	}
	s.batches = append(s.batches, texts)

	n := len(texts)
	if s.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = append([]float32(nil), s.vector...)
	}
	if s.onBatch != nil {
		s.onBatch()
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return len(s.vector) }
func (s *stubEmbedder) ModelName() string            { return "stub" }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error                 { return nil }

func (s *stubEmbedder) embedded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

// mockLLM records the messages it was sent and replies with a fixed answer.
type mockLLM struct {
	reply    string
	err      error
	messages []domain.Message
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []domain.Message, opts driven.ChatOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string            { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// wordTokenizer counts whitespace-separated words.
type wordTokenizer struct{}

func (wordTokenizer) Name() string { return "words" }
func (wordTokenizer) CountTokens(text string) int {
	n, inWord := 0, false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			n++
		}
		inWord = true
	}
	return n
}

// --- Fixture ---

const stubMethod = "stub"

type fixture struct {
	store      *sqlite.Store
	embedder   *stubEmbedder
	library    *LibraryService
	pipeline   *PipelineService
	retrieval  *RetrievalService
	embedders  *embedders.Registry
	retrievers *retrievers.Registry
}

// newFixture wires the services over a temporary SQLite store. The stub
// embedder is registered next to the built-in embedders.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	z, err := compress.NewZstd()
	require.NoError(t, err)
	store, err := sqlite.NewStore(t.TempDir(), z)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, z.Close())
	})

	stub := &stubEmbedder{vector: []float32{1, 0, 0}}

	embedReg, err := embedders.NewRegistry(embedders.Providers{})
	require.NoError(t, err)
	require.NoError(t, embedReg.Register(domain.Strategy{
		Method:      stubMethod,
		Description: "constant vectors",
		Params: map[string]domain.ParamSpec{
			"dimensions":          {Label: "Dimensions", Type: domain.ParamInt, Default: 3, Min: domain.Bound(1)},
			domain.BatchSizeParam: {Label: "Batch size", Type: domain.ParamInt, Default: 16, Min: domain.Bound(1)},
		},
	}, func(map[string]any) (driven.EmbeddingService, error) {
		return stub, nil
	}))

	chunkReg, err := chunkers.NewRegistry()
	require.NoError(t, err)
	retrieverReg, err := retrievers.NewRegistry(store, nil)
	require.NoError(t, err)

	pipeline := NewPipelineService(store, store, chunkReg, embedReg)
	pipeline.SetBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	})

	return &fixture{
		store:      store,
		embedder:   stub,
		library:    NewLibraryService(store, store, extractors.New(), nil),
		pipeline:   pipeline,
		retrieval:  NewRetrievalService(store, store, embedReg, retrieverReg),
		embedders:  embedReg,
		retrievers: retrieverReg,
	}
}

// addText creates a domain and saves content as a text in it.
func (f *fixture) addText(t *testing.T, domainName, textName, content string) (*domain.Domain, *domain.ExtractedText) {
	t.Helper()
	ctx := context.Background()

	d, err := f.library.ResolveDomain(ctx, domainName)
	if err != nil {
		d, err = f.library.CreateDomain(ctx, domainName)
		require.NoError(t, err)
	}
	text := &domain.ExtractedText{DomainID: d.ID, Name: textName, Content: content}
	require.NoError(t, f.library.SaveText(ctx, text))
	return d, text
}

// chunk splits text into fixed windows of size characters.
func (f *fixture) chunk(t *testing.T, textID string, size int) *domain.ChunkProcess {
	t.Helper()
	cp, err := f.pipeline.ChunkText(context.Background(), textID, "fixed_length",
		map[string]any{"chunk_size": size}, fmt.Sprintf("fixed %d", size))
	require.NoError(t, err)
	return cp
}
