// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DomainStore: Domain persistence
//   - TextStore: Extracted text persistence (content compressed at rest)
//   - Ledger: Chunk and embedding process bookkeeping
//   - ModelCacheStore: Cached model metadata
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory and applied with golang-migrate. Each migration is a
// pair of .up.sql and .down.sql files.
//
// Foreign keys are enforced without ON DELETE CASCADE. Deletes that span
// tables run as explicit, ordered statements inside one transaction, so a
// missed step fails with domain.ErrDataIntegrity instead of leaving orphans.
//
// # Data Location
//
// By default, the database is stored at ~/.ragbench/data/ragbench.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
