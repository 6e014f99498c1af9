package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/services"
	"github.com/nocturne-labs/tunesync/internal/shared"
	"github.com/nocturne-labs/tunesync/internal/store"
)

// Resolver maps canonical entities to native ids on a target service.
//
// Resolution is lookup-only: it never creates catalog state on the
// target. Successful lookups are written to the cache, so a repeated
// resolution of the same entity answers from the cache with zero
// network calls.
type Resolver struct {
	cache  *store.Cache
	logger *log.Logger
}

// NewResolver creates a resolver backed by the given cache.
func NewResolver(cache *store.Cache, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{cache: cache, logger: logger}
}

// pickBestMatch selects one candidate from a multi-result lookup: the
// first candidate whose normalized name (and artist, when given) matches
// exactly, else the first candidate.
func pickBestMatch(candidates []models.NativeRecord, name, artist string) models.NativeRecord {
	wantName := shared.NormalizeName(name)
	wantArtist := shared.NormalizeName(artist)

	for _, c := range candidates {
		if shared.NormalizeName(c.Name) != wantName {
			continue
		}
		if wantArtist != "" && shared.NormalizeName(c.ArtistName) != wantArtist {
			continue
		}
		return c
	}
	return candidates[0]
}

func (r *Resolver) cachePut(ctx context.Context, rec models.NativeRecord) {
	if err := r.cache.Put(ctx, rec); err != nil {
		r.logger.Warn("failed to cache resolved record",
			"service", rec.Service, "native_id", rec.NativeID, "error", err)
	}
}

// ResolveSong resolves a canonical song on the target service: cache by
// ISRC, then the ISRC filter endpoint, then exact normalized title+artist
// search. Returns [shared.ErrUnresolved] when no confident match exists.
func (r *Resolver) ResolveSong(ctx context.Context, song models.Song, target services.Catalog) (models.NativeRecord, error) {
	if song.ISRC != "" {
		if rec, err := r.cache.GetByStableKey(ctx, target.Name(), models.KindSong, song.ISRC); err == nil {
			return rec, nil
		}

		candidates, err := target.SongByISRC(ctx, song.ISRC)
		if err != nil {
			return models.NativeRecord{}, err
		}
		if len(candidates) > 0 {
			rec := pickBestMatch(candidates, song.Title, song.Artist())
			r.cachePut(ctx, rec)
			return rec, nil
		}
	}

	// No ISRC, or the catalog has no entry for it. Fall back to search
	// and accept only an exact normalized match.
	candidates, err := target.SearchSongs(ctx, song.Title, song.Artist())
	if err != nil {
		return models.NativeRecord{}, err
	}

	want := shared.NormalizeTrackKey(song.Title, song.Artist())
	for _, c := range candidates {
		if shared.NormalizeTrackKey(c.Name, c.ArtistName) == want {
			r.cachePut(ctx, c)
			return c, nil
		}
	}

	return models.NativeRecord{}, fmt.Errorf("%w: song %q by %q on %s",
		shared.ErrUnresolved, song.Title, song.Artist(), target.Name())
}

// ResolveAlbum resolves a canonical album by UPC. Albums without a UPC
// have no confident cross-service identity and stay unresolved.
func (r *Resolver) ResolveAlbum(ctx context.Context, album models.Album, target services.Catalog) (models.NativeRecord, error) {
	artist := ""
	if len(album.Artists) > 0 {
		artist = album.Artists[0]
	}

	if album.UPC == "" {
		return models.NativeRecord{}, fmt.Errorf("%w: album %q by %q has no UPC",
			shared.ErrUnresolved, album.Title, artist)
	}

	if rec, err := r.cache.GetByStableKey(ctx, target.Name(), models.KindAlbum, album.UPC); err == nil {
		return rec, nil
	}

	candidates, err := target.AlbumByUPC(ctx, album.UPC)
	if err != nil {
		return models.NativeRecord{}, err
	}
	if len(candidates) == 0 {
		return models.NativeRecord{}, fmt.Errorf("%w: album %q (UPC %s) on %s",
			shared.ErrUnresolved, album.Title, album.UPC, target.Name())
	}

	rec := pickBestMatch(candidates, album.Title, artist)
	r.cachePut(ctx, rec)
	return rec, nil
}

// ResolveArtist resolves an artist by exact normalized name match, the
// only identity artists have across services.
func (r *Resolver) ResolveArtist(ctx context.Context, artist models.Artist, target services.Catalog) (models.NativeRecord, error) {
	candidates, err := target.SearchArtists(ctx, artist.Name)
	if err != nil {
		return models.NativeRecord{}, err
	}

	want := shared.NormalizeName(artist.Name)
	for _, c := range candidates {
		if shared.NormalizeName(c.Name) == want {
			r.cachePut(ctx, c)
			return c, nil
		}
	}

	return models.NativeRecord{}, fmt.Errorf("%w: artist %q on %s",
		shared.ErrUnresolved, artist.Name, target.Name())
}
