package driving

import (
	"context"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// LibraryService manages domains and their extracted texts.
type LibraryService interface {
	// CreateDomain creates a named domain. Duplicate names fail with
	// domain.ErrConflict.
	CreateDomain(ctx context.Context, name string) (*domain.Domain, error)

	// ResolveDomain finds a domain by ID or, failing that, by name.
	ResolveDomain(ctx context.Context, ref string) (*domain.Domain, error)

	// ListDomains returns all domains.
	ListDomains(ctx context.Context) ([]domain.Domain, error)

	// RenameDomain changes a domain's name.
	RenameDomain(ctx context.Context, id, name string) error

	// DeleteDomain removes an empty domain.
	DeleteDomain(ctx context.Context, id string) error

	// ExtractAndSave extracts text from src and stores it in the domain.
	// An empty name defaults to the source name without extension.
	ExtractAndSave(ctx context.Context, domainID string, src domain.Source, name, textType string) (*domain.ExtractedText, error)

	// SaveText stores already-extracted text.
	SaveText(ctx context.Context, text *domain.ExtractedText) error

	// UpdateText re-saves an edited text.
	UpdateText(ctx context.Context, id, content string) error

	// GetText returns a text with its content.
	GetText(ctx context.Context, id string) (*domain.ExtractedText, error)

	// ListTexts returns the texts of a domain without content.
	ListTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error)

	// DeleteText removes one text and everything derived from it.
	DeleteText(ctx context.Context, id string) error

	// DeleteTexts removes texts and everything derived from them.
	DeleteTexts(ctx context.Context, ids []string) error

	// WatchFolder ingests files created in dir until ctx is cancelled.
	// Each ingested text is reported through onText.
	WatchFolder(ctx context.Context, domainID, dir string, onText func(*domain.ExtractedText, error)) error
}
