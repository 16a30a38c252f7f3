package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragbench/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/core/ports/driven"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "ragbench.db"

// Verify interface compliance.
var (
	_ driven.DomainStore     = (*Store)(nil)
	_ driven.TextStore       = (*Store)(nil)
	_ driven.Ledger          = (*Store)(nil)
	_ driven.ModelCacheStore = (*Store)(nil)
)

// Store is the SQLite implementation of the library, ledger and model
// cache ports.
type Store struct {
	db         *sql.DB
	path       string
	compressor driven.Compressor
}

// NewStore opens (creating if needed) the database in dataDir and applies
// pending migrations. If dataDir is empty, defaults to ~/.ragbench/data.
func NewStore(dataDir string, compressor driven.Compressor) (*Store, error) {
	if compressor == nil {
		return nil, fmt.Errorf("%w: sqlite store needs a compressor", domain.ErrInvalidConfiguration)
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragbench", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL mode for concurrent readers; foreign keys are per connection so
	// they are set through the DSN rather than a one-off PRAGMA.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := newStore(db, compressor)
	s.path = dbPath

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("sqlite: opened %s", dbPath)
	return s, nil
}

// newStore wraps an open database without migrating it.
func newStore(db *sql.DB, compressor driven.Compressor) *Store {
	return &Store{db: db, compressor: compressor}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies all pending up migrations. The migrate instance is not
// closed because that would close the shared *sql.DB.
func (s *Store) migrate() error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err == nil {
		logger.Debug("sqlite: schema version %d (dirty=%t)", version, dirty)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on any error.
// Errors are classified and logged under op.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Op(op+" rollback", rbErr)
		}
		return s.fail(op, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(op, err)
	}
	return nil
}
