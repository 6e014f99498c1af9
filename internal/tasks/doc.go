// Package tasks implements library synchronization between music services.
//
// The core abstraction is SyncEngine, which orchestrates per-kind ingest
// (read a library into canonical snapshots) and export (resolve entities
// on the destination service and write them in batches). Operations emit
// progress updates via channels for non-blocking status reporting to the
// CLI layer.
package tasks
