package sqlite

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// ListUnchunkedTextsByDomain returns texts with no chunk process.
func (s *Store) ListUnchunkedTextsByDomain(ctx context.Context, domainID string) ([]domain.TextSummary, error) {
	return s.queryTexts(ctx, "list unchunked texts", `
		SELECT `+textSummaryColumns+` FROM extracted_texts t
		WHERE t.domain_id = ?
		  AND NOT EXISTS (SELECT 1 FROM chunk_processes cp WHERE cp.extracted_text_id = t.id)
		ORDER BY t.name, t.type
	`, domainID)
}

// ListChunkedTextsByDomain returns texts with at least one chunk process.
func (s *Store) ListChunkedTextsByDomain(ctx context.Context, domainID string) ([]domain.TextSummary, error) {
	return s.queryTexts(ctx, "list chunked texts", `
		SELECT `+textSummaryColumns+` FROM extracted_texts t
		WHERE t.domain_id = ?
		  AND EXISTS (SELECT 1 FROM chunk_processes cp WHERE cp.extracted_text_id = t.id)
		ORDER BY t.name, t.type
	`, domainID)
}

// ListDomainsWithChunks returns domains owning at least one chunk.
func (s *Store) ListDomainsWithChunks(ctx context.Context) ([]domain.Domain, error) {
	return s.queryDomains(ctx, "list domains with chunks", `
		SELECT d.id, d.name, d.created_at FROM domains d
		WHERE EXISTS (
			SELECT 1 FROM extracted_texts t
			JOIN chunk_processes cp ON cp.extracted_text_id = t.id
			JOIN chunks c ON c.chunk_process_id = cp.id
			WHERE t.domain_id = d.id
		)
		ORDER BY d.name
	`)
}

// ListTextsByDomainAndEmbedder returns texts with at least one embedding
// made under configKey.
func (s *Store) ListTextsByDomainAndEmbedder(ctx context.Context, domainID, configKey string) ([]domain.TextSummary, error) {
	return s.queryTexts(ctx, "list texts by embedder", `
		SELECT `+textSummaryColumns+` FROM extracted_texts t
		WHERE t.domain_id = ?
		  AND EXISTS (
			SELECT 1 FROM chunk_processes cp
			JOIN embedding_processes ep ON ep.chunk_process_id = cp.id
			JOIN embeddings e ON e.embedding_process_id = ep.id
			WHERE cp.extracted_text_id = t.id AND ep.config_key = ?
		  )
		ORDER BY t.name, t.type
	`, domainID, configKey)
}

// ListCandidates returns the embeddings retrieval may score, ordered by
// embedding ID. Empty TextIDs or ConfigKey leave that filter off.
func (s *Store) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Candidate, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT e.id, e.chunk_id, e.vector
		FROM embeddings e
		JOIN embedding_processes ep ON ep.id = e.embedding_process_id
		JOIN chunks c ON c.id = e.chunk_id
		JOIN chunk_processes cp ON cp.id = c.chunk_process_id
		JOIN extracted_texts t ON t.id = cp.extracted_text_id
		WHERE t.domain_id = ?`)
	args := []any{filter.DomainID}

	if filter.ConfigKey != "" {
		sb.WriteString(" AND ep.config_key = ?")
		args = append(args, filter.ConfigKey)
	}
	if len(filter.TextIDs) > 0 {
		sb.WriteString(" AND t.id IN (" + placeholders(len(filter.TextIDs)) + ")")
		args = append(args, stringArgs(filter.TextIDs)...)
	}
	sb.WriteString(" ORDER BY e.id")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, s.fail("list candidates", err)
	}
	defer rows.Close()

	candidates := []domain.Candidate{}
	for rows.Next() {
		var c domain.Candidate
		var blob []byte
		if err := rows.Scan(&c.EmbeddingID, &c.ChunkID, &blob); err != nil {
			return nil, s.fail("list candidates", err)
		}
		if c.Vector, err = bytesToFloat32Slice(blob); err != nil {
			return nil, s.fail("list candidates", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list candidates", err)
	}
	return candidates, nil
}
