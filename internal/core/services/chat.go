package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Chat defaults.
const (
	DefaultContextWindow  = 4096
	DefaultResponseBuffer = 512
	DefaultChatTopN       = 5
)

// DefaultSystemPrompt instructs the model when no prompt store overrides it.
const DefaultSystemPrompt = `You answer questions using the context passages below.
If the context does not contain the answer, say so instead of guessing.`

// ChatConfig configures the chat service.
type ChatConfig struct {
	// Source and Model identify the chat model in the model catalog.
	Source string
	Model  string

	// ContextWindow is used when the catalog does not know the model.
	ContextWindow int

	// Options are passed to every chat call.
	Options driven.ChatOptions

	// Prompts optionally overrides DefaultSystemPrompt.
	Prompts driven.PromptStore
}

// ChatService answers questions with context retrieved from the library.
type ChatService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	tokenizer driven.Tokenizer
	catalog   driving.ModelCatalog
	cfg       ChatConfig
}

// NewChatService creates a new chat service.
// The llm and catalog parameters are optional (can be nil).
func NewChatService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	tokenizer driven.Tokenizer,
	catalog driving.ModelCatalog,
	cfg ChatConfig,
) *ChatService {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}
	return &ChatService{
		retrieval: retrieval,
		llm:       llm,
		tokenizer: tokenizer,
		catalog:   catalog,
		cfg:       cfg,
	}
}

// Available reports whether a chat backend is configured.
func (s *ChatService) Available() bool {
	return s.llm != nil
}

// Ask retrieves context for question, fits history and context into the
// model's window and returns the model's answer. The question and answer
// are appended to the session history.
func (s *ChatService) Ask(ctx context.Context, session *domain.ChatSession, question string) (*domain.ChatReply, error) {
	logger.Section("Chat")

	if !s.Available() {
		return nil, domain.ErrLLMUnavailable
	}
	if session == nil {
		return nil, fmt.Errorf("%w: chat session is required", domain.ErrValidation)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}

	topN := session.TopN
	if topN <= 0 {
		topN = DefaultChatTopN
	}
	hits, err := s.retrieval.Query(ctx, driving.RetrieveRequest{
		DomainID:           session.DomainID,
		Query:              question,
		EmbeddingProcessID: session.EmbeddingProcessID,
		Retriever:          session.Retriever,
		RetrieverParams:    session.RetrieverParams,
		TopN:               topN,
		TextIDs:            session.TextIDs,
	})
	if err != nil {
		return nil, err
	}

	processor, err := NewTextProcessor(s.tokenizer, s.contextWindow(ctx))
	if err != nil {
		return nil, err
	}

	buffer := session.ResponseBuffer
	if buffer <= 0 {
		buffer = min(DefaultResponseBuffer, processor.ContextWindow()/4)
	}

	// The question and instructions are always sent, so they come off the top.
	instructions := s.systemPrompt()
	turn := domain.Message{Role: domain.RoleUser, Content: question}
	reserved := buffer + processor.GetNumTokens(instructions) + processor.GetNumTokens(question)

	passages := make([]string, len(hits))
	for i, h := range hits {
		passages[i] = h.Chunk.Content
	}
	kept, keptPassages, used, err := processor.ReduceTexts(session.History, passages, reserved)
	if err != nil {
		return nil, err
	}
	logger.Debug("kept %d/%d messages and %d/%d passages in %d tokens",
		len(kept), len(session.History), len(keptPassages), len(passages), used)

	messages := make([]domain.Message, 0, len(kept)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: buildSystemPrompt(instructions, keptPassages)})
	messages = append(messages, kept...)
	messages = append(messages, turn)

	answer, err := s.llm.Chat(ctx, messages, s.options(buffer))
	if err != nil {
		return nil, err
	}

	session.History = append(session.History, turn, domain.Message{Role: domain.RoleAssistant, Content: answer})

	return &domain.ChatReply{
		Answer:       answer,
		Context:      hits[:len(keptPassages)],
		KeptMessages: len(kept),
		TokensUsed:   used,
	}, nil
}

// contextWindow prefers the catalog's figure for the configured model.
func (s *ChatService) contextWindow(ctx context.Context) int {
	if s.catalog != nil && s.cfg.Source != "" && s.cfg.Model != "" {
		if n, ok := s.catalog.ContextWindow(ctx, s.cfg.Source, s.cfg.Model); ok {
			return n
		}
	}
	return s.cfg.ContextWindow
}

func (s *ChatService) systemPrompt() string {
	if s.cfg.Prompts == nil {
		return DefaultSystemPrompt
	}
	prompt, err := s.cfg.Prompts.Load(driven.PromptChatSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("using default system prompt: %v", err)
		return DefaultSystemPrompt
	}
	return prompt
}

func (s *ChatService) options(buffer int) driven.ChatOptions {
	opts := s.cfg.Options
	if opts.MaxTokens <= 0 || opts.MaxTokens > buffer {
		opts.MaxTokens = buffer
	}
	return opts
}

func buildSystemPrompt(instructions string, passages []string) string {
	var b strings.Builder
	b.WriteString(instructions)
	if len(passages) == 0 {
		b.WriteString("\n\nNo context passages were found.")
		return b.String()
	}
	b.WriteString("\n\nContext:")
	for i, p := range passages {
		fmt.Fprintf(&b, "\n\n[%d] %s", i+1, p)
	}
	return b.String()
}
