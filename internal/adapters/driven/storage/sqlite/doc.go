// Package sqlite provides the SQLite-backed briefing history store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations embedded
// from the migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.brief/data/history.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on database-level
// locking provided by SQLite in WAL mode.
package sqlite
