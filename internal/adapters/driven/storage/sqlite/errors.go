package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/ragbench/internal/core/domain"
	"github.com/custodia-labs/ragbench/internal/logger"
)

// expected lists outcomes that callers handle; they are not storage failures.
var expected = []error{
	domain.ErrNotFound,
	domain.ErrValidation,
	domain.ErrConflict,
	domain.ErrDecompression,
	context.Canceled,
	context.DeadlineExceeded,
}

// fail classifies err and logs it with the operation name. Unexpected
// failures are logged as errors, expected outcomes only in verbose mode.
func (s *Store) fail(op string, err error) error {
	for _, target := range expected {
		if errors.Is(err, target) {
			logger.Debug("sqlite: %s: %v", op, err)
			return err
		}
	}

	err = classify(err)
	if errors.Is(err, domain.ErrConflict) {
		logger.Debug("sqlite: %s: %v", op, err)
	} else {
		logger.Op("sqlite "+op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// classify maps a driver error onto a domain sentinel.
func classify(err error) error {
	if errors.Is(err, domain.ErrDataIntegrity) || errors.Is(err, domain.ErrPersistence) {
		return err
	}

	var sqlErr *moderncsqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", domain.ErrDataIntegrity, err)
		}
	}

	// Fallback for drivers that only report the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", domain.ErrDataIntegrity, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}
