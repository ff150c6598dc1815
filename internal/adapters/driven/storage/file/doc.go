// Package file provides JSON-file implementations of the metadata,
// checkpoint and lock stores.
//
// Files live in a single data directory (0700) and are written with
// 0600 permissions through a temp file and rename, so a crash never
// leaves a half-written file behind:
//
//   - metadata.json: document records keyed by document id
//   - chunkmap.json: chunk lists keyed by document id
//   - checkpoints.json: sync checkpoints keyed by source id
//   - last_sync.json: last successful pass keyed by source id
//   - locks/sync-<hash>.lock: one lock file per source
package file
