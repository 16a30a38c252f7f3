package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// GetModelInfo returns cached metadata or domain.ErrNotFound.
func (s *Store) GetModelInfo(ctx context.Context, source, modelID string) (*domain.ModelInfo, error) {
	var attrsJSON, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT attributes, updated_at FROM model_cache WHERE source = ? AND model_id = ?
	`, source, modelID).Scan(&attrsJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.fail("get model info", fmt.Errorf("%w: %s model %s", domain.ErrNotFound, source, modelID))
	}
	if err != nil {
		return nil, s.fail("get model info", err)
	}

	info := &domain.ModelInfo{Source: source, ModelID: modelID, Attributes: map[string]any{}}
	if err := json.Unmarshal([]byte(attrsJSON), &info.Attributes); err != nil {
		return nil, s.fail("get model info", fmt.Errorf("%w: model attributes: %w", domain.ErrDataIntegrity, err))
	}
	if info.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, s.fail("get model info", err)
	}
	return info, nil
}

// SaveModelInfo inserts or replaces the cached entry.
func (s *Store) SaveModelInfo(ctx context.Context, info *domain.ModelInfo) error {
	if info == nil || info.Source == "" || info.ModelID == "" {
		return fmt.Errorf("%w: model source and id are required", domain.ErrValidation)
	}
	if info.UpdatedAt.IsZero() {
		info.UpdatedAt = time.Now()
	}

	attrs := info.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("%w: model attributes: %w", domain.ErrValidation, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO model_cache (source, model_id, attributes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source, model_id) DO UPDATE SET
			attributes = excluded.attributes,
			updated_at = excluded.updated_at
	`, info.Source, info.ModelID, string(attrsJSON), formatTime(info.UpdatedAt))
	if err != nil {
		return s.fail("save model info", err)
	}
	return nil
}
