package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/core/ports/driving"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService manages domains and their extracted texts.
type LibraryService struct {
	domains   driven.DomainStore
	texts     driven.TextStore
	extractor driven.Extractor
	watcher   driven.FolderWatcher
}

// NewLibraryService creates a new library service.
// The extractor and watcher are optional (can be nil).
func NewLibraryService(
	domains driven.DomainStore,
	texts driven.TextStore,
	extractor driven.Extractor,
	watcher driven.FolderWatcher,
) *LibraryService {
	return &LibraryService{
		domains:   domains,
		texts:     texts,
		extractor: extractor,
		watcher:   watcher,
	}
}

// CreateDomain creates a named domain.
func (s *LibraryService) CreateDomain(ctx context.Context, name string) (*domain.Domain, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: domain name is required", domain.ErrValidation)
	}
	d := &domain.Domain{Name: name}
	if err := s.domains.CreateDomain(ctx, d); err != nil {
		return nil, err
	}
	logger.Debug("created domain %s (%s)", d.Name, d.ID)
	return d, nil
}

// ResolveDomain finds a domain by ID or, failing that, by name.
func (s *LibraryService) ResolveDomain(ctx context.Context, ref string) (*domain.Domain, error) {
	d, err := s.domains.GetDomain(ctx, ref)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.domains.GetDomainByName(ctx, ref)
}

// ListDomains returns all domains.
func (s *LibraryService) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	return s.domains.ListDomains(ctx)
}

// RenameDomain changes a domain's name.
func (s *LibraryService) RenameDomain(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: domain name is required", domain.ErrValidation)
	}
	return s.domains.RenameDomain(ctx, id, name)
}

// DeleteDomain removes an empty domain.
func (s *LibraryService) DeleteDomain(ctx context.Context, id string) error {
	return s.domains.DeleteDomain(ctx, id)
}

// ExtractAndSave extracts text from src and stores it in the domain.
func (s *LibraryService) ExtractAndSave(
	ctx context.Context,
	domainID string,
	src domain.Source,
	name, textType string,
) (*domain.ExtractedText, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", domain.ErrUnsupportedFormat)
	}

	content, err := s.extractor.Extract(ctx, src)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrValidation, sourceLabel(src))
	}

	if name == "" {
		name = defaultTextName(src)
	}
	text := &domain.ExtractedText{
		DomainID:     domainID,
		Name:         name,
		Type:         textType,
		OriginalName: sourceLabel(src),
		Content:      content,
	}
	if err := s.SaveText(ctx, text); err != nil {
		return nil, err
	}
	logger.Debug("saved text %s (%d chars) from %s", text.Name, len([]rune(content)), text.OriginalName)
	return text, nil
}

// SaveText stores already-extracted text.
func (s *LibraryService) SaveText(ctx context.Context, text *domain.ExtractedText) error {
	if text == nil || strings.TrimSpace(text.Name) == "" {
		return fmt.Errorf("%w: text name is required", domain.ErrValidation)
	}
	if text.Type == "" {
		text.Type = domain.TextTypeOriginal
	}
	if text.Type != domain.TextTypeOriginal && text.Type != domain.TextTypeEdited {
		return fmt.Errorf("%w: text type %q", domain.ErrValidation, text.Type)
	}
	return s.texts.SaveText(ctx, text)
}

// UpdateText re-saves an edited text.
func (s *LibraryService) UpdateText(ctx context.Context, id, content string) error {
	return s.texts.UpdateText(ctx, id, content)
}

// GetText returns a text with its content.
func (s *LibraryService) GetText(ctx context.Context, id string) (*domain.ExtractedText, error) {
	return s.texts.GetText(ctx, id)
}

// ListTexts returns the texts of a domain without content.
func (s *LibraryService) ListTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error) {
	return s.texts.ListTexts(ctx, domainID)
}

// DeleteText removes one text and everything derived from it.
func (s *LibraryService) DeleteText(ctx context.Context, id string) error {
	return s.texts.DeleteTexts(ctx, []string{id})
}

// DeleteTexts removes texts and everything derived from them.
func (s *LibraryService) DeleteTexts(ctx context.Context, ids []string) error {
	return s.texts.DeleteTexts(ctx, ids)
}

// WatchFolder ingests files written to dir until ctx is cancelled.
// Files the extractor cannot handle are skipped silently.
func (s *LibraryService) WatchFolder(
	ctx context.Context,
	domainID, dir string,
	onText func(*domain.ExtractedText, error),
) error {
	if s.watcher == nil {
		return fmt.Errorf("%w: folder watching is not available", domain.ErrInvalidConfiguration)
	}
	if _, err := s.domains.GetDomain(ctx, domainID); err != nil {
		return err
	}

	sources, err := s.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}
	logger.Info("watching %s for new documents", dir)

	for src := range sources {
		text, err := s.ingest(ctx, domainID, src)
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			logger.Debug("watch: skipping %s: %v", src.Name, err)
			continue
		}
		if onText != nil {
			onText(text, err)
		}
	}
	return ctx.Err()
}

// ingest saves a watched file, replacing the content of the original text
// when the file was ingested before.
func (s *LibraryService) ingest(ctx context.Context, domainID string, src domain.Source) (*domain.ExtractedText, error) {
	content, err := s.extractor.Extract(ctx, src)
	if err != nil {
		return nil, err
	}

	text := &domain.ExtractedText{
		DomainID:     domainID,
		Name:         defaultTextName(src),
		Type:         domain.TextTypeOriginal,
		OriginalName: sourceLabel(src),
		Content:      content,
	}
	err = s.texts.SaveText(ctx, text)
	switch {
	case err == nil:
		return text, nil
	case !errors.Is(err, domain.ErrConflict):
		return nil, err
	}

	summaries, err := s.texts.ListTexts(ctx, domainID)
	if err != nil {
		return nil, err
	}
	for _, sum := range summaries {
		if sum.Name == text.Name && sum.Type == domain.TextTypeOriginal {
			if err := s.texts.UpdateText(ctx, sum.ID, content); err != nil {
				return nil, err
			}
			return s.texts.GetText(ctx, sum.ID)
		}
	}
	return nil, fmt.Errorf("%w: text %q", domain.ErrConflict, text.Name)
}

// defaultTextName is the file name without extension, or host and path for URLs.
func defaultTextName(src domain.Source) string {
	if src.URL != "" {
		if u, err := url.Parse(src.URL); err == nil && u.Host != "" {
			return strings.TrimSuffix(u.Host+u.Path, "/")
		}
		return src.URL
	}
	base := filepath.Base(src.Name)
	return strings.TrimSuffix(base, path.Ext(base))
}

func sourceLabel(src domain.Source) string {
	if src.URL != "" {
		return src.URL
	}
	return src.Name
}
