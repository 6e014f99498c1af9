// Package models defines the service-agnostic canonical model and the
// service-native record wrapper used by the sync engine.
//
// The package contains two categories of types:
//
// 1. Canonical entities: the in-memory representation all translations pass through
//   - [Song] : recording identified across services by ISRC
//   - [Album] : release identified across services by UPC
//   - [Artist] : name only; matched by normalized name equality
//   - [Playlist] / [PlaylistItem] : ordered track list with metadata
//   - [HistoryItem] : a single listen with provenance fields
//   - [Library] : aggregate of a user's library for one sync run
//
// 2. [NativeRecord] : an opaque wrapper around the as-returned JSON of one
// specific remote service's catalog/library entity. The resolver and cache
// operate on this wrapper rather than per-service types, so a new service
// can be added without touching the canonical model.
//
// Canonical entities are transient; only native records and library
// snapshots persist, via the store package.
package models
