// Package services defines the [Catalog] interface for music streaming
// providers and implements it for Apple Music and Spotify.
//
// # Catalog Interface
//
// Both providers expose the same surface to the sync engine: complete
// paginated library walks, stable-key catalog lookups (ISRC/UPC),
// normalized-text search, and batch-limited library/playlist writes.
// Clients are explicit objects constructed once at startup and passed by
// handle into the engine; there is no global accessor.
//
// # Pagination
//
// [FetchAll] follows a list endpoint's cursor chain to completion and
// cross-checks the collected item count against any server-reported total.
// A mismatch or a non-success page fetch aborts the whole walk for that
// resource; there is no partial-library ingestion of a single kind.
//
// # Rate Limiting
//
// Every outbound call passes through a token-bucket limited
// [http.RoundTripper] (golang.org/x/time/rate) parameterized per service
// from configuration, with an explicit per-call timeout. Pagination walks
// are therefore complete rather than truncated by ad hoc call counters.
//
// # Authentication
//
// The clients only present bearer credentials on each call; token
// acquisition (developer portal, OAuth exchange) happens outside this
// process and arrives via configuration.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : 401 from the remote service
//   - [shared.ErrAPIRequest] : any other non-success HTTP status
//   - [shared.ErrPaginationMismatch] : collected count disagrees with meta total
package services
