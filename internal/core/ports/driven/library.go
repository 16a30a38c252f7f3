package driven

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// DomainStore persists domains.
type DomainStore interface {
	// CreateDomain stores a new domain. A duplicate name fails with
	// domain.ErrConflict.
	CreateDomain(ctx context.Context, d *domain.Domain) error

	// GetDomain retrieves a domain by ID.
	GetDomain(ctx context.Context, id string) (*domain.Domain, error)

	// GetDomainByName retrieves a domain by its unique name.
	GetDomainByName(ctx context.Context, name string) (*domain.Domain, error)

	// ListDomains returns all domains ordered by name.
	ListDomains(ctx context.Context) ([]domain.Domain, error)

	// RenameDomain changes a domain's name.
	RenameDomain(ctx context.Context, id, name string) error

	// DeleteDomain removes a domain. It fails with domain.ErrConflict while
	// the domain still owns texts.
	DeleteDomain(ctx context.Context, id string) error
}

// TextStore persists extracted texts. Content is compressed at rest.
type TextStore interface {
	// SaveText inserts a new text. A duplicate (name, domain, type) fails
	// with domain.ErrConflict.
	SaveText(ctx context.Context, text *domain.ExtractedText) error

	// UpdateText replaces the content of an existing text.
	UpdateText(ctx context.Context, id, content string) error

	// GetText retrieves a text with its decompressed content.
	GetText(ctx context.Context, id string) (*domain.ExtractedText, error)

	// ListTexts returns summaries of a domain's texts ordered by name.
	ListTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error)

	// DeleteTexts removes texts and everything built on them: chunk
	// processes, chunks, embedding processes and embeddings.
	DeleteTexts(ctx context.Context, ids []string) error
}
