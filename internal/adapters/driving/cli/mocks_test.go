package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// --- Mock implementations ---

type mockLibrary struct {
	domains map[string]*domain.Domain
	texts   map[string]*domain.ExtractedText
	deleted []string
	sources []domain.Source
}

func newMockLibrary() *mockLibrary {
	return &mockLibrary{
		domains: map[string]*domain.Domain{
			"dom-1": {ID: "dom-1", Name: "physics", CreatedAt: testTime},
		},
		texts: map[string]*domain.ExtractedText{
			"text-1": {ID: "text-1", DomainID: "dom-1", Name: "waves", Type: domain.TextTypeOriginal,
				OriginalName: "waves.pdf", Content: "A wave carries energy.", CreatedAt: testTime},
		},
	}
}

func (m *mockLibrary) CreateDomain(_ context.Context, name string) (*domain.Domain, error) {
	for _, d := range m.domains {
		if d.Name == name {
			return nil, fmt.Errorf("%w: domain %q", domain.ErrConflict, name)
		}
	}
	d := &domain.Domain{ID: "dom-new", Name: name, CreatedAt: testTime}
	m.domains[d.ID] = d
	return d, nil
}

func (m *mockLibrary) ResolveDomain(_ context.Context, ref string) (*domain.Domain, error) {
	if d, ok := m.domains[ref]; ok {
		return d, nil
	}
	for _, d := range m.domains {
		if d.Name == ref {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) ListDomains(_ context.Context) ([]domain.Domain, error) {
	out := make([]domain.Domain, 0, len(m.domains))
	for _, d := range m.domains {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockLibrary) RenameDomain(_ context.Context, id, name string) error {
	d, ok := m.domains[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Name = name
	return nil
}

func (m *mockLibrary) DeleteDomain(_ context.Context, id string) error {
	for _, t := range m.texts {
		if t.DomainID == id {
			return fmt.Errorf("%w: domain has texts", domain.ErrConflict)
		}
	}
	delete(m.domains, id)
	return nil
}

func (m *mockLibrary) ExtractAndSave(
	_ context.Context, domainID string, src domain.Source, name, textType string,
) (*domain.ExtractedText, error) {
	m.sources = append(m.sources, src)
	content := "page body"
	if src.Reader != nil {
		data, err := io.ReadAll(src.Reader)
		if err != nil {
			return nil, err
		}
		content = string(data)
	}
	if name == "" {
		name = strings.TrimSuffix(src.Name, ".txt")
	}
	t := &domain.ExtractedText{ID: "text-new", DomainID: domainID, Name: name, Type: textType, Content: content}
	m.texts[t.ID] = t
	return t, nil
}

func (m *mockLibrary) SaveText(_ context.Context, text *domain.ExtractedText) error {
	m.texts[text.ID] = text
	return nil
}

func (m *mockLibrary) UpdateText(_ context.Context, id, content string) error {
	t, ok := m.texts[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Content = content
	return nil
}

func (m *mockLibrary) GetText(_ context.Context, id string) (*domain.ExtractedText, error) {
	t, ok := m.texts[id]
	if !ok {
		return nil, fmt.Errorf("%w: text %s", domain.ErrNotFound, id)
	}
	return t, nil
}

func (m *mockLibrary) ListTexts(_ context.Context, domainID string) ([]domain.TextSummary, error) {
	var out []domain.TextSummary
	for _, t := range m.texts {
		if t.DomainID == domainID {
			out = append(out, domain.TextSummary{ID: t.ID, DomainID: t.DomainID, Name: t.Name,
				Type: t.Type, OriginalName: t.OriginalName, CreatedAt: t.CreatedAt})
		}
	}
	return out, nil
}

func (m *mockLibrary) DeleteText(ctx context.Context, id string) error {
	return m.DeleteTexts(ctx, []string{id})
}

func (m *mockLibrary) DeleteTexts(_ context.Context, ids []string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *mockLibrary) WatchFolder(
	_ context.Context, _, _ string, onText func(*domain.ExtractedText, error),
) error {
	onText(m.texts["text-1"], nil)
	return nil
}

type mockPipeline struct {
	lastMethod string
	lastParams map[string]any
	lastName   string
	embedErr   error
}

func (m *mockPipeline) ChunkMethods() []domain.Strategy {
	return []domain.Strategy{{
		Method:      "fixed_length",
		Description: "Fixed windows",
		Params: map[string]domain.ParamSpec{
			"chunk_size": {Label: "Chunk size", Type: domain.ParamInt, Default: 1000},
		},
	}}
}

func (m *mockPipeline) EmbeddingMethods() []domain.Strategy {
	return []domain.Strategy{{Method: "hashing", Description: "Feature hashing"}}
}

func (m *mockPipeline) ChunkText(
	_ context.Context, textID, method string, params map[string]any, name string,
) (*domain.ChunkProcess, error) {
	m.lastMethod, m.lastParams, m.lastName = method, params, name
	if textID != "text-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.ChunkProcess{ID: "cp-1", TextID: textID, Method: method, Parameters: params, CreatedAt: testTime}, nil
}

func (m *mockPipeline) EmbedChunkProcess(
	_ context.Context, chunkProcessID, method string, params map[string]any, name string, progress driving.ProgressFunc,
) (*domain.EmbeddingProcess, error) {
	m.lastMethod, m.lastParams, m.lastName = method, params, name
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if progress != nil {
		progress(0, 2)
		progress(2, 2)
	}
	return &domain.EmbeddingProcess{ID: "ep-1", ChunkProcessID: chunkProcessID, Method: method,
		Parameters: params, CreatedAt: testTime}, nil
}

func (m *mockPipeline) ResumeEmbedding(
	_ context.Context, id string, progress driving.ProgressFunc,
) (*domain.EmbeddingProcess, error) {
	if progress != nil {
		progress(2, 2)
	}
	return &domain.EmbeddingProcess{ID: id, ChunkProcessID: "cp-1", Method: "hashing", CreatedAt: testTime}, nil
}

func (m *mockPipeline) ListChunkProcesses(_ context.Context, _ string) ([]domain.ChunkProcess, error) {
	return []domain.ChunkProcess{{
		ID: "cp-1", TextID: "text-1", Method: "fixed_length",
		Parameters: map[string]any{"chunk_size": 500, domain.NameParam: "five hundred"}, CreatedAt: testTime,
	}}, nil
}

func (m *mockPipeline) GetChunkProcess(_ context.Context, id string) (*domain.ChunkProcess, error) {
	return &domain.ChunkProcess{ID: id, TextID: "text-1", Method: "fixed_length", CreatedAt: testTime}, nil
}

func (m *mockPipeline) ListChunks(_ context.Context, processID string) ([]domain.Chunk, error) {
	return []domain.Chunk{
		{ID: "c-0", ProcessID: processID, Index: 0, Content: "A wave"},
		{ID: "c-1", ProcessID: processID, Index: 1, Content: " carries energy."},
	}, nil
}

func (m *mockPipeline) RenameChunkProcess(_ context.Context, _, _ string) error { return nil }
func (m *mockPipeline) DeleteChunkProcess(_ context.Context, _ string) error    { return nil }

func (m *mockPipeline) ListEmbeddingProcesses(_ context.Context, _ string) ([]domain.EmbeddingProcess, error) {
	return []domain.EmbeddingProcess{{
		ID: "ep-1", ChunkProcessID: "cp-1", Method: "hashing",
		Parameters: map[string]any{"dimensions": 256}, CreatedAt: testTime,
	}}, nil
}

func (m *mockPipeline) GetEmbeddingProcess(_ context.Context, id string) (*domain.EmbeddingProcess, error) {
	return &domain.EmbeddingProcess{ID: id, ChunkProcessID: "cp-1", Method: "hashing", CreatedAt: testTime}, nil
}

func (m *mockPipeline) CountEmbeddings(_ context.Context, _ string) (int, error) { return 2, nil }
func (m *mockPipeline) RenameEmbeddingProcess(_ context.Context, _, _ string) error {
	return nil
}
func (m *mockPipeline) DeleteEmbeddingProcess(_ context.Context, _ string) error { return nil }

func (m *mockPipeline) ListUnchunkedTexts(_ context.Context, _ string) ([]domain.TextSummary, error) {
	return nil, nil
}

func (m *mockPipeline) ListChunkedTexts(_ context.Context, domainID string) ([]domain.TextSummary, error) {
	return []domain.TextSummary{{ID: "text-1", DomainID: domainID, Name: "waves", Type: domain.TextTypeOriginal}}, nil
}

func (m *mockPipeline) ListDomainsWithChunks(_ context.Context) ([]domain.Domain, error) {
	return nil, nil
}

type mockRetrieval struct {
	last driving.RetrieveRequest
}

func (m *mockRetrieval) RetrieverMethods() []domain.Strategy {
	return []domain.Strategy{{Method: "cosine", Description: "Cosine similarity"}}
}

func (m *mockRetrieval) Query(_ context.Context, req driving.RetrieveRequest) ([]domain.RetrievedChunk, error) {
	m.last = req
	return []domain.RetrievedChunk{{
		EmbeddingID: "e-1",
		Chunk:       domain.Chunk{ID: "c-1", Index: 1, Content: " carries energy."},
		TextID:      "text-1",
		TextName:    "waves",
		Score:       0.875,
	}}, nil
}

type mockChat struct {
	available bool
	questions []string
	err       error
}

func (m *mockChat) Available() bool { return m.available }

func (m *mockChat) Ask(_ context.Context, session *domain.ChatSession, question string) (*domain.ChatReply, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.questions = append(m.questions, question)
	answer := "Answer to: " + question
	session.History = append(session.History,
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: answer})
	return &domain.ChatReply{
		Answer: answer,
		Context: []domain.RetrievedChunk{{
			Chunk: domain.Chunk{ID: "c-1", Index: 1}, TextName: "waves", Score: 0.5,
		}},
	}, nil
}

type mockCatalog struct {
	refreshed bool
}

func (m *mockCatalog) Get(_ context.Context, source, modelID string) (*domain.ModelInfo, error) {
	if modelID == "unknown" {
		return nil, domain.ErrNotFound
	}
	return &domain.ModelInfo{
		Source:     source,
		ModelID:    modelID,
		Attributes: map[string]any{domain.AttrContextWindow: 8192, "family": "llama"},
		UpdatedAt:  testTime,
	}, nil
}

func (m *mockCatalog) Refresh(ctx context.Context, source, modelID string) (*domain.ModelInfo, error) {
	m.refreshed = true
	return m.Get(ctx, source, modelID)
}

func (m *mockCatalog) ContextWindow(_ context.Context, _, _ string) (int, bool) {
	return 8192, true
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	library   *mockLibrary
	pipeline  *mockPipeline
	retrieval *mockRetrieval
	chat      *mockChat
	catalog   *mockCatalog
}

// setupTestServices installs fresh mocks and returns them with a cleanup
// that removes them and resets every flag.
func setupTestServices() (*testServices, func()) {
	s := &testServices{
		library:   newMockLibrary(),
		pipeline:  &mockPipeline{},
		retrieval: &mockRetrieval{},
		chat:      &mockChat{available: true},
		catalog:   &mockCatalog{},
	}
	SetServices(Services{
		Library:        s.library,
		Pipeline:       s.pipeline,
		Retrieval:      s.retrieval,
		Chat:           s.chat,
		Models:         s.catalog,
		EmbedMethod:    "ollama",
		EmbedParams:    map[string]any{"model": "nomic-embed-text"},
		ChatSource:     "ollama",
		ChatModel:      "llama3.2",
		ResponseBuffer: 256,
	})

	return s, func() {
		SetServices(Services{})
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// resetFlags restores flag defaults so tests do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
