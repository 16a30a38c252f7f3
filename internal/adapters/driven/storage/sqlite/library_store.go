package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// ==================== Domains ====================

// CreateDomain stores a new domain, assigning an ID and timestamp when unset.
func (s *Store) CreateDomain(ctx context.Context, d *domain.Domain) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("%w: domain name is required", domain.ErrValidation)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO domains (id, name, created_at) VALUES (?, ?, ?)",
		d.ID, d.Name, formatTime(d.CreatedAt))
	if err != nil {
		return s.fail("create domain", err)
	}
	return nil
}

// GetDomain retrieves a domain by ID.
func (s *Store) GetDomain(ctx context.Context, id string) (*domain.Domain, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM domains WHERE id = ?", id)
	d, err := scanDomain(row)
	if err != nil {
		return nil, s.fail("get domain", err)
	}
	return d, nil
}

// GetDomainByName retrieves a domain by its unique name.
func (s *Store) GetDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM domains WHERE name = ?", name)
	d, err := scanDomain(row)
	if err != nil {
		return nil, s.fail("get domain by name", err)
	}
	return d, nil
}

// ListDomains returns all domains ordered by name.
func (s *Store) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	return s.queryDomains(ctx, "list domains", "SELECT id, name, created_at FROM domains ORDER BY name")
}

// RenameDomain changes a domain's name.
func (s *Store) RenameDomain(ctx context.Context, id, name string) error {
	if name == "" {
		return fmt.Errorf("%w: domain name is required", domain.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE domains SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return s.fail("rename domain", err)
	}
	return s.requireRow("rename domain", res, "domain", id)
}

// DeleteDomain removes a domain that owns no texts.
func (s *Store) DeleteDomain(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete domain", func(tx *sql.Tx) error {
		var texts int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM extracted_texts WHERE domain_id = ?", id).Scan(&texts); err != nil {
			return err
		}
		if texts > 0 {
			return fmt.Errorf("%w: domain %s still has %d texts", domain.ErrConflict, id, texts)
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM domains WHERE id = ?", id)
		if err != nil {
			return err
		}
		return rowAffected(res, "domain", id)
	})
}

func (s *Store) queryDomains(ctx context.Context, op, query string, args ...any) ([]domain.Domain, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(op, err)
	}
	defer rows.Close()

	domains := []domain.Domain{}
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, s.fail(op, err)
		}
		domains = append(domains, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err)
	}
	return domains, nil
}

func scanDomain(row scanner) (*domain.Domain, error) {
	var d domain.Domain
	var createdAt string
	if err := row.Scan(&d.ID, &d.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: domain", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning domain: %w", err)
	}

	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// ==================== Texts ====================

// SaveText inserts a new text with compressed content.
func (s *Store) SaveText(ctx context.Context, text *domain.ExtractedText) error {
	if text == nil || text.Name == "" || text.DomainID == "" {
		return fmt.Errorf("%w: text name and domain are required", domain.ErrValidation)
	}
	if text.Type == "" {
		text.Type = domain.TextTypeOriginal
	}
	if text.ID == "" {
		text.ID = uuid.NewString()
	}
	now := time.Now()
	if text.CreatedAt.IsZero() {
		text.CreatedAt = now
	}
	text.UpdatedAt = now

	blob, err := s.compressor.Compress(text.Content)
	if err != nil {
		return s.fail("save text", err)
	}

	return s.withTx(ctx, "save text", func(tx *sql.Tx) error {
		if err := requireExists(ctx, tx, "domains", text.DomainID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO extracted_texts (id, domain_id, name, type, original_name, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, text.ID, text.DomainID, text.Name, text.Type, text.OriginalName, blob,
			formatTime(text.CreatedAt), formatTime(text.UpdatedAt))
		return err
	})
}

// UpdateText replaces the content of an existing text.
func (s *Store) UpdateText(ctx context.Context, id, content string) error {
	blob, err := s.compressor.Compress(content)
	if err != nil {
		return s.fail("update text", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE extracted_texts SET content = ?, updated_at = ? WHERE id = ?",
		blob, formatTime(time.Now()), id)
	if err != nil {
		return s.fail("update text", err)
	}
	return s.requireRow("update text", res, "text", id)
}

// GetText retrieves a text with its decompressed content.
func (s *Store) GetText(ctx context.Context, id string) (*domain.ExtractedText, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, domain_id, name, type, original_name, content, created_at, updated_at
		FROM extracted_texts WHERE id = ?
	`, id)

	var text domain.ExtractedText
	var blob []byte
	var createdAt, updatedAt string
	err := row.Scan(&text.ID, &text.DomainID, &text.Name, &text.Type, &text.OriginalName,
		&blob, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.fail("get text", fmt.Errorf("%w: text %s", domain.ErrNotFound, id))
	}
	if err != nil {
		return nil, s.fail("get text", err)
	}

	if text.Content, err = s.compressor.Decompress(blob); err != nil {
		return nil, s.fail("get text", err)
	}
	if text.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, s.fail("get text", err)
	}
	if text.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, s.fail("get text", err)
	}
	return &text, nil
}

// textSummaryColumns selects the columns read by scanTextSummary from alias t.
const textSummaryColumns = "t.id, t.domain_id, t.name, t.type, t.original_name, t.created_at"

// ListTexts returns summaries of a domain's texts ordered by name.
func (s *Store) ListTexts(ctx context.Context, domainID string) ([]domain.TextSummary, error) {
	return s.queryTexts(ctx, "list texts", `
		SELECT `+textSummaryColumns+` FROM extracted_texts t
		WHERE t.domain_id = ? ORDER BY t.name, t.type
	`, domainID)
}

// DeleteTexts removes texts and everything built on them, deepest rows first.
func (s *Store) DeleteTexts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(ctx, "delete texts", func(tx *sql.Tx) error {
		args := stringArgs(ids)
		in := placeholders(len(ids))
		processes := "SELECT id FROM chunk_processes WHERE extracted_text_id IN (" + in + ")"

		steps := []string{
			`DELETE FROM embeddings WHERE chunk_id IN (
				SELECT id FROM chunks WHERE chunk_process_id IN (` + processes + `))`,
			"DELETE FROM embedding_processes WHERE chunk_process_id IN (" + processes + ")",
			"DELETE FROM chunks WHERE chunk_process_id IN (" + processes + ")",
			"DELETE FROM chunk_processes WHERE extracted_text_id IN (" + in + ")",
		}
		for _, stmt := range steps {
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM extracted_texts WHERE id IN ("+in+")", args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if int(n) != len(ids) {
			return fmt.Errorf("%w: %d of %d texts", domain.ErrNotFound, len(ids)-int(n), len(ids))
		}
		return nil
	})
}

func (s *Store) queryTexts(ctx context.Context, op, query string, args ...any) ([]domain.TextSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(op, err)
	}
	defer rows.Close()

	texts := []domain.TextSummary{}
	for rows.Next() {
		var t domain.TextSummary
		var createdAt string
		if err := rows.Scan(&t.ID, &t.DomainID, &t.Name, &t.Type, &t.OriginalName, &createdAt); err != nil {
			return nil, s.fail(op, err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, s.fail(op, err)
		}
		texts = append(texts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err)
	}
	return texts, nil
}

// requireRow turns a zero-row update into domain.ErrNotFound.
func (s *Store) requireRow(op string, res sql.Result, kind, id string) error {
	if err := rowAffected(res, kind, id); err != nil {
		return s.fail(op, err)
	}
	return nil
}

func rowAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	return nil
}

// requireExists fails with domain.ErrValidation when table has no row with id.
func requireExists(ctx context.Context, tx *sql.Tx, table, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s does not exist", domain.ErrValidation, table, id)
	}
	return err
}
