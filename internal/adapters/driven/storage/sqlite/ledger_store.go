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

// ==================== Chunk processes ====================

// CreateChunkProcess records a new chunking run over a text.
func (s *Store) CreateChunkProcess(ctx context.Context, textID, method string, params map[string]any) (string, error) {
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return "", s.fail("create chunk process", err)
	}

	id := uuid.NewString()
	err = s.withTx(ctx, "create chunk process", func(tx *sql.Tx) error {
		if err := requireExists(ctx, tx, "extracted_texts", textID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunk_processes (id, extracted_text_id, method, parameters, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, id, textID, method, paramsJSON, formatTime(time.Now()))
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveChunks stores all chunks of a process or none of them.
func (s *Store) SaveChunks(ctx context.Context, processID string, chunks []domain.ChunkInput) error {
	if len(chunks) == 0 {
		return s.fail("save chunks", fmt.Errorf("%w: no chunks to save", domain.ErrValidation))
	}
	seen := make([]bool, len(chunks))
	for _, c := range chunks {
		if c.Index < 0 || c.Index >= len(chunks) || seen[c.Index] {
			return s.fail("save chunks", fmt.Errorf(
				"%w: chunk indexes must be 0..%d without gaps, got %d", domain.ErrValidation, len(chunks)-1, c.Index))
		}
		seen[c.Index] = true
	}

	blobs := make([][]byte, len(chunks))
	for i, c := range chunks {
		blob, err := s.compressor.Compress(c.Text)
		if err != nil {
			return s.fail("save chunks", err)
		}
		blobs[i] = blob
	}

	return s.withTx(ctx, "save chunks", func(tx *sql.Tx) error {
		if err := requireExists(ctx, tx, "chunk_processes", processID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, chunk_process_id, idx, content) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range chunks {
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), processID, c.Index, blobs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunkProcess retrieves a chunk process by ID.
func (s *Store) GetChunkProcess(ctx context.Context, id string) (*domain.ChunkProcess, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, extracted_text_id, method, parameters, created_at
		FROM chunk_processes WHERE id = ?
	`, id)
	p, err := scanChunkProcess(row)
	if err != nil {
		return nil, s.fail("get chunk process", err)
	}
	return p, nil
}

// ListChunkProcessesByText returns a text's chunk processes newest first.
func (s *Store) ListChunkProcessesByText(ctx context.Context, textID string) ([]domain.ChunkProcess, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, extracted_text_id, method, parameters, created_at
		FROM chunk_processes WHERE extracted_text_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, textID)
	if err != nil {
		return nil, s.fail("list chunk processes", err)
	}
	defer rows.Close()

	processes := []domain.ChunkProcess{}
	for rows.Next() {
		p, err := scanChunkProcess(rows)
		if err != nil {
			return nil, s.fail("list chunk processes", err)
		}
		processes = append(processes, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list chunk processes", err)
	}
	return processes, nil
}

// ListChunksByProcess returns a process's chunks in index order.
func (s *Store) ListChunksByProcess(ctx context.Context, processID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chunk_process_id, idx, content FROM chunks
		WHERE chunk_process_id = ? ORDER BY idx
	`, processID)
	if err != nil {
		return nil, s.fail("list chunks", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		c, err := s.scanChunk(rows)
		if err != nil {
			return nil, s.fail("list chunks", err)
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list chunks", err)
	}
	return chunks, nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, chunk_process_id, idx, content FROM chunks WHERE id = ?", id)
	c, err := s.scanChunk(row)
	if err != nil {
		return nil, s.fail("get chunk", err)
	}
	return c, nil
}

// UpdateChunkProcessName sets the display name. Other parameters are immutable.
func (s *Store) UpdateChunkProcessName(ctx context.Context, id, name string) error {
	return s.rename(ctx, "rename chunk process", "chunk_processes", id, name)
}

// DeleteChunkProcess removes a process and everything derived from it.
func (s *Store) DeleteChunkProcess(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete chunk process", func(tx *sql.Tx) error {
		steps := []string{
			`DELETE FROM embeddings WHERE chunk_id IN (SELECT id FROM chunks WHERE chunk_process_id = ?)`,
			"DELETE FROM embedding_processes WHERE chunk_process_id = ?",
			"DELETE FROM chunks WHERE chunk_process_id = ?",
		}
		for _, stmt := range steps {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM chunk_processes WHERE id = ?", id)
		if err != nil {
			return err
		}
		return rowAffected(res, "chunk process", id)
	})
}

// DeleteChunksByProcess removes a process's chunks and their embeddings.
func (s *Store) DeleteChunksByProcess(ctx context.Context, processID string) error {
	return s.withTx(ctx, "delete chunks", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM embeddings WHERE chunk_id IN (SELECT id FROM chunks WHERE chunk_process_id = ?)
		`, processID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE chunk_process_id = ?", processID)
		return err
	})
}

func scanChunkProcess(row scanner) (*domain.ChunkProcess, error) {
	var p domain.ChunkProcess
	var paramsJSON, createdAt string
	if err := row.Scan(&p.ID, &p.TextID, &p.Method, &paramsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: chunk process", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning chunk process: %w", err)
	}

	var err error
	if p.Parameters, err = unmarshalParams(paramsJSON); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) scanChunk(row scanner) (*domain.Chunk, error) {
	var c domain.Chunk
	var blob []byte
	if err := row.Scan(&c.ID, &c.ProcessID, &c.Index, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: chunk", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	content, err := s.compressor.Decompress(blob)
	if err != nil {
		return nil, err
	}
	c.Content = content
	return &c, nil
}

// ==================== Embedding processes ====================

// CreateEmbeddingProcess records a new embedding run over a chunk process.
func (s *Store) CreateEmbeddingProcess(
	ctx context.Context,
	chunkProcessID, method string,
	params map[string]any,
	configKey string,
) (string, error) {
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return "", s.fail("create embedding process", err)
	}
	if configKey == "" {
		configKey = domain.ConfigKey(method, params)
	}

	id := uuid.NewString()
	err = s.withTx(ctx, "create embedding process", func(tx *sql.Tx) error {
		if err := requireExists(ctx, tx, "chunk_processes", chunkProcessID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO embedding_processes (id, chunk_process_id, method, parameters, config_key, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, chunkProcessID, method, paramsJSON, configKey, formatTime(time.Now()))
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

const embeddingProcessColumns = "id, chunk_process_id, method, parameters, config_key, created_at"

// GetEmbeddingProcess retrieves an embedding process by ID.
func (s *Store) GetEmbeddingProcess(ctx context.Context, id string) (*domain.EmbeddingProcess, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+embeddingProcessColumns+" FROM embedding_processes WHERE id = ?", id)
	p, err := scanEmbeddingProcess(row)
	if err != nil {
		return nil, s.fail("get embedding process", err)
	}
	return p, nil
}

// ListEmbeddingProcessesByChunkProcess returns processes newest first.
func (s *Store) ListEmbeddingProcessesByChunkProcess(ctx context.Context, chunkProcessID string) ([]domain.EmbeddingProcess, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+embeddingProcessColumns+` FROM embedding_processes
		WHERE chunk_process_id = ? ORDER BY created_at DESC, rowid DESC`, chunkProcessID)
	if err != nil {
		return nil, s.fail("list embedding processes", err)
	}
	defer rows.Close()

	processes := []domain.EmbeddingProcess{}
	for rows.Next() {
		p, err := scanEmbeddingProcess(rows)
		if err != nil {
			return nil, s.fail("list embedding processes", err)
		}
		processes = append(processes, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list embedding processes", err)
	}
	return processes, nil
}

// UpdateEmbeddingProcessName sets the display name.
func (s *Store) UpdateEmbeddingProcessName(ctx context.Context, id, name string) error {
	return s.rename(ctx, "rename embedding process", "embedding_processes", id, name)
}

// DeleteEmbeddingProcess removes the embeddings and then the process.
func (s *Store) DeleteEmbeddingProcess(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete embedding process", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE embedding_process_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM embedding_processes WHERE id = ?", id)
		if err != nil {
			return err
		}
		return rowAffected(res, "embedding process", id)
	})
}

func scanEmbeddingProcess(row scanner) (*domain.EmbeddingProcess, error) {
	var p domain.EmbeddingProcess
	var paramsJSON, createdAt string
	if err := row.Scan(&p.ID, &p.ChunkProcessID, &p.Method, &paramsJSON, &p.ConfigKey, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: embedding process", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning embedding process: %w", err)
	}

	var err error
	if p.Parameters, err = unmarshalParams(paramsJSON); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// rename rewrites the display name stored in a process's parameters.
func (s *Store) rename(ctx context.Context, op, table, id, name string) error {
	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, "SELECT parameters FROM "+table+" WHERE id = ?", id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s %s", domain.ErrNotFound, table, id)
		}
		if err != nil {
			return err
		}

		params, err := unmarshalParams(raw)
		if err != nil {
			return err
		}
		if name == "" {
			delete(params, domain.NameParam)
		} else {
			params[domain.NameParam] = name
		}
		paramsJSON, err := marshalParams(params)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "UPDATE "+table+" SET parameters = ? WHERE id = ?", paramsJSON, id)
		return err
	})
}

// ==================== Embeddings ====================

// SaveEmbedding inserts or replaces the vector for (processID, chunkID).
// The chunk must belong to the chunk process the embedding process covers.
func (s *Store) SaveEmbedding(ctx context.Context, processID, chunkID string, vector []float32) error {
	if len(vector) == 0 {
		return s.fail("save embedding", fmt.Errorf("%w: empty vector", domain.ErrValidation))
	}

	return s.withTx(ctx, "save embedding", func(tx *sql.Tx) error {
		var matches int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM embedding_processes ep
			JOIN chunks c ON c.chunk_process_id = ep.chunk_process_id
			WHERE ep.id = ? AND c.id = ?
		`, processID, chunkID).Scan(&matches); err != nil {
			return err
		}
		if matches == 0 {
			return fmt.Errorf("%w: chunk %s is not covered by embedding process %s",
				domain.ErrValidation, chunkID, processID)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (id, embedding_process_id, chunk_id, vector)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (embedding_process_id, chunk_id) DO UPDATE SET vector = excluded.vector
		`, uuid.NewString(), processID, chunkID, float32SliceToBytes(vector))
		return err
	})
}

// ListEmbeddingsByProcess returns a process's embeddings in chunk order.
func (s *Store) ListEmbeddingsByProcess(ctx context.Context, processID string) ([]domain.Embedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.embedding_process_id, e.chunk_id, e.vector
		FROM embeddings e JOIN chunks c ON c.id = e.chunk_id
		WHERE e.embedding_process_id = ? ORDER BY c.idx
	`, processID)
	if err != nil {
		return nil, s.fail("list embeddings", err)
	}
	defer rows.Close()

	embeddings := []domain.Embedding{}
	for rows.Next() {
		var e domain.Embedding
		var blob []byte
		if err := rows.Scan(&e.ID, &e.ProcessID, &e.ChunkID, &blob); err != nil {
			return nil, s.fail("list embeddings", err)
		}
		if e.Vector, err = bytesToFloat32Slice(blob); err != nil {
			return nil, s.fail("list embeddings", err)
		}
		embeddings = append(embeddings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list embeddings", err)
	}
	return embeddings, nil
}

// CountEmbeddings returns how many chunks of a process have a vector.
func (s *Store) CountEmbeddings(ctx context.Context, processID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE embedding_process_id = ?", processID).Scan(&n)
	if err != nil {
		return 0, s.fail("count embeddings", err)
	}
	return n, nil
}
