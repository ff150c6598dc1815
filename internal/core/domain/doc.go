// Package domain defines the core entities of docsync.
//
// This package is the innermost layer of the hexagonal architecture and
// defines the fundamental types:
//
//   - Chunk: a typed slice of a document's text, the unit of retrieval
//   - DocumentRecord: the stored full text of an ingested document
//   - SyncCheckpoint and SyncLock: per-source synchronisation state
//   - SearchHit and RetrievalResult: query-time results
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
