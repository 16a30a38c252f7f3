package services

import (
	"fmt"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
)

// TextProcessor fits a conversation and retrieved context into a model's
// token budget.
type TextProcessor struct {
	tokenizer     driven.Tokenizer
	contextWindow int
}

// NewTextProcessor creates a text processor. A negative window fails with
// domain.ErrInvalidConfiguration.
func NewTextProcessor(tokenizer driven.Tokenizer, contextWindow int) (*TextProcessor, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", domain.ErrInvalidConfiguration)
	}
	p := &TextProcessor{tokenizer: tokenizer}
	if err := p.SetContextWindow(contextWindow); err != nil {
		return nil, err
	}
	return p, nil
}

// SetContextWindow changes the token budget.
func (p *TextProcessor) SetContextWindow(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: context window must not be negative, got %d", domain.ErrInvalidConfiguration, n)
	}
	p.contextWindow = n
	return nil
}

// ContextWindow returns the token budget.
func (p *TextProcessor) ContextWindow() int {
	return p.contextWindow
}

// GetNumTokens counts the tokens in text.
func (p *TextProcessor) GetNumTokens(text string) int {
	return p.tokenizer.CountTokens(text)
}

// ReduceTexts selects what fits in the context window minus responseBuffer.
//
// Messages are walked newest first (the end of the slice) and the walk stops
// at the first message that would overflow. Texts then share what is left,
// walked in the given order, which callers sort most relevant first.
// Both returned slices keep their input order.
func (p *TextProcessor) ReduceTexts(
	messages []domain.Message,
	texts []string,
	responseBuffer int,
) ([]domain.Message, []string, int, error) {
	if responseBuffer < 0 {
		return nil, nil, 0, fmt.Errorf("%w: response buffer must not be negative, got %d",
			domain.ErrInvalidConfiguration, responseBuffer)
	}
	if responseBuffer >= p.contextWindow {
		return nil, nil, 0, fmt.Errorf("%w: response buffer %d leaves no room in a %d token window",
			domain.ErrInvalidConfiguration, responseBuffer, p.contextWindow)
	}

	remaining := p.contextWindow - responseBuffer
	used := 0

	first := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		n := p.GetNumTokens(messages[i].Content)
		if n > remaining {
			break
		}
		remaining -= n
		used += n
		first = i
	}
	keptMessages := append([]domain.Message{}, messages[first:]...)

	keptTexts := []string{}
	for _, text := range texts {
		n := p.GetNumTokens(text)
		if n > remaining {
			break
		}
		remaining -= n
		used += n
		keptTexts = append(keptTexts, text)
	}

	return keptMessages, keptTexts, used, nil
}

// GetNumTokensLeft returns the window minus what messages would use
// with no response buffer.
func (p *TextProcessor) GetNumTokensLeft(messages []domain.Message) (int, error) {
	_, _, used, err := p.ReduceTexts(messages, nil, 0)
	if err != nil {
		return 0, err
	}
	return p.contextWindow - used, nil
}
