// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The vector store client, sync coordinator and retrieval engine live
// here, together with upload ingestion, repository file lookups,
// prompt assembly and the background scheduler.
package services
