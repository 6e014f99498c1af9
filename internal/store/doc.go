// Package store persists service-native records and per-run canonical
// snapshots in sqlite, treating tables as JSON document collections.
//
// The cache keeps one document per (service, native id) and answers
// stable-key and native-id lookups so the resolver can skip network
// round-trips. Snapshots are append-only: every ingest run writes its
// canonical documents under a fresh run id and never rewrites history.
package store
