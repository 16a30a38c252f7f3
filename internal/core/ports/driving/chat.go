package driving

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// ChatService answers questions with retrieved context.
type ChatService interface {
	// Ask answers question within session and appends the turn to its history.
	Ask(ctx context.Context, session *domain.ChatSession, question string) (*domain.ChatReply, error)

	// Available reports whether a chat backend is configured.
	Available() bool
}
