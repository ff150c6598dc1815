// Package memory provides in-memory implementations of the storage and
// vector index ports. They back tests and the "memory" index backend.
package memory
