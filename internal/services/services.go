package services

import (
	"context"

	"github.com/nocturne-labs/tunesync/internal/models"
)

// Service name constants used in native records and cache keys.
const (
	AppleMusicName = "applemusic"
	SpotifyName    = "spotify"
)

// Documented per-call limits of the batch write endpoints. These are fixed
// per operation, not negotiated at runtime.
const (
	PlaylistItemBatchLimit  = 100
	LibrarySongBatchLimit   = 50
	LibraryArtistBatchLimit = 50
	LibraryAlbumBatchLimit  = 20
)

// BatchLimitFor returns the documented batch write limit for a library
// resource kind.
func BatchLimitFor(kind models.Kind) int {
	switch kind {
	case models.KindAlbum:
		return LibraryAlbumBatchLimit
	default:
		return LibrarySongBatchLimit
	}
}

// SongEntry pairs a canonical song with the native record it was
// translated from.
type SongEntry struct {
	Song   models.Song
	Record models.NativeRecord
}

// AlbumEntry pairs a canonical album with its native record.
type AlbumEntry struct {
	Album  models.Album
	Record models.NativeRecord
}

// ArtistEntry pairs a canonical artist with its native record.
type ArtistEntry struct {
	Artist models.Artist
	Record models.NativeRecord
}

// PlaylistEntry pairs a canonical playlist (items included, in order) with
// its native record.
type PlaylistEntry struct {
	Playlist models.Playlist
	Record   models.NativeRecord
}

// Catalog defines the remote surface the sync engine composes: complete
// library walks, stable-key lookups, text search, and batch writes.
//
// Read methods walk pagination to completion and translate into the
// canonical model alongside the raw native record. Lookup methods return
// candidate native records only; picking a winner is the resolver's job.
type Catalog interface {
	// Name returns the service name constant ("applemusic", "spotify").
	Name() string

	// Library walks. Each returns the user's complete library of one kind,
	// in service order.
	LibrarySongs(ctx context.Context) ([]SongEntry, error)
	LibraryAlbums(ctx context.Context) ([]AlbumEntry, error)
	LibraryArtists(ctx context.Context) ([]ArtistEntry, error)
	LibraryPlaylists(ctx context.Context) ([]PlaylistEntry, error)
	ListeningHistory(ctx context.Context) ([]models.HistoryItem, error)

	// Stable-key catalog lookups. Zero results yield (nil, nil) rather than
	// an error; multiple results are returned as-is.
	SongByISRC(ctx context.Context, isrc string) ([]models.NativeRecord, error)
	AlbumByUPC(ctx context.Context, upc string) ([]models.NativeRecord, error)

	// Normalized-text search for entities without a stable key.
	SearchSongs(ctx context.Context, title, artist string) ([]models.NativeRecord, error)
	SearchArtists(ctx context.Context, name string) ([]models.NativeRecord, error)

	// Writes. AddToLibrary accepts at most BatchLimitFor(kind) ids per
	// call; AddPlaylistItems accepts at most PlaylistItemBatchLimit.
	AddToLibrary(ctx context.Context, kind models.Kind, ids []string) error
	CreatePlaylist(ctx context.Context, pl models.Playlist) (string, error)
	AddPlaylistItems(ctx context.Context, playlistID string, ids []string) error
}
