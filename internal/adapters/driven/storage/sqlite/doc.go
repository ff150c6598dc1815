// Package sqlite provides a local vector index backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Chunk text is embedded client-side through
// a driven.EmbeddingService and stored as little-endian float32 blobs. Queries are a
// brute-force cosine scan, which is adequate for a single repository's documentation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docsync/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
