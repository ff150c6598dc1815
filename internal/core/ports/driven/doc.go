// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorIndex: Chunk storage and similarity search (Chroma, SQLite, memory)
//   - EmbeddingService: Turns text into vectors for the index adapters
//   - MetadataStore: Document records and their chunk id lists
//   - CheckpointStore: Last processed revision and last sync time per source
//   - LockStore: Sync lock per source
//   - Repository: Remote source of documents (GitHub)
//   - TextExtractor: Text from binary formats (PDF)
//   - Chunker: Splits document text into typed chunks
//
// # Optional Interfaces
//
//   - QueryCache: Retrieval result cache. When nil, every query hits the index.
//   - PromptStore: User-edited prompts. When nil, built-in defaults apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
