package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/shared"
)

func TestPickBestMatch(t *testing.T) {
	candidates := []models.NativeRecord{
		{NativeID: "1", Name: "Song Title (Live)", ArtistName: "Band"},
		{NativeID: "2", Name: "Song Title", ArtistName: "Band"},
		{NativeID: "3", Name: "Song Title", ArtistName: "Other Band"},
	}

	t.Run("Prefers Exact Normalized Match", func(t *testing.T) {
		got := pickBestMatch(candidates, "song title", "BAND")
		if got.NativeID != "2" {
			t.Errorf("expected exact match candidate 2, got %s", got.NativeID)
		}
	})

	t.Run("Matches Name When Artist Omitted", func(t *testing.T) {
		got := pickBestMatch(candidates, "Song Title", "")
		if got.NativeID != "2" {
			t.Errorf("expected first name match, got %s", got.NativeID)
		}
	})

	t.Run("Falls Back To First Candidate", func(t *testing.T) {
		got := pickBestMatch(candidates, "Different Song", "Band")
		if got.NativeID != "1" {
			t.Errorf("expected first candidate fallback, got %s", got.NativeID)
		}
	})

	t.Run("Is Deterministic", func(t *testing.T) {
		first := pickBestMatch(candidates, "Song Title", "Band")
		for i := 0; i < 5; i++ {
			if got := pickBestMatch(candidates, "Song Title", "Band"); got.NativeID != first.NativeID {
				t.Fatalf("pick changed between identical calls: %s vs %s", first.NativeID, got.NativeID)
			}
		}
	})
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolveSong", func(t *testing.T) {
		t.Run("By ISRC", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			dest.byISRC["USABC1234567"] = []models.NativeRecord{
				destRecord("spotify", "t1", "USABC1234567", "Song", "Band"),
			}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			song := models.Song{ISRC: "USABC1234567", Title: "Song", Artists: []string{"Band"}}

			rec, err := r.ResolveSong(ctx, song, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if rec.NativeID != "t1" {
				t.Errorf("expected t1, got %s", rec.NativeID)
			}
			if dest.isrcCalls != 1 || dest.searchCalls != 0 {
				t.Errorf("expected exactly one ISRC lookup, got isrc=%d search=%d", dest.isrcCalls, dest.searchCalls)
			}
		})

		t.Run("Second Resolution Hits Cache", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			dest.byISRC["USABC1234567"] = []models.NativeRecord{
				destRecord("spotify", "t1", "USABC1234567", "Song", "Band"),
			}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			song := models.Song{ISRC: "USABC1234567", Title: "Song", Artists: []string{"Band"}}

			first, err := r.ResolveSong(ctx, song, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			second, err := r.ResolveSong(ctx, song, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if first.NativeID != second.NativeID {
				t.Errorf("resolution not idempotent: %s vs %s", first.NativeID, second.NativeID)
			}
			if dest.isrcCalls != 1 {
				t.Errorf("expected second resolution to skip the network, got %d lookups", dest.isrcCalls)
			}
		})

		t.Run("Falls Back To Exact Search Match", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			dest.searchSongs["Song|Band"] = []models.NativeRecord{
				destRecord("spotify", "close", "", "Song (Remix)", "Band"),
				destRecord("spotify", "exact", "", "Song", "Band"),
			}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			song := models.Song{Title: "Song", Artists: []string{"Band"}}

			rec, err := r.ResolveSong(ctx, song, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if rec.NativeID != "exact" {
				t.Errorf("expected exact search match, got %s", rec.NativeID)
			}
		})

		t.Run("Near Miss Is Unresolved", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			dest.searchSongs["Song|Band"] = []models.NativeRecord{
				destRecord("spotify", "close", "", "Song (Remix)", "Band"),
			}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			_, err := r.ResolveSong(ctx, models.Song{Title: "Song", Artists: []string{"Band"}}, dest)
			if !errors.Is(err, shared.ErrUnresolved) {
				t.Errorf("expected ErrUnresolved, got %v", err)
			}
		})

		t.Run("Unknown ISRC Falls Back To Search", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			dest.searchSongs["Song|Band"] = []models.NativeRecord{
				destRecord("spotify", "found", "", "Song", "Band"),
			}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			song := models.Song{ISRC: "ZZ0000000000", Title: "Song", Artists: []string{"Band"}}

			rec, err := r.ResolveSong(ctx, song, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if rec.NativeID != "found" {
				t.Errorf("expected search fallback, got %s", rec.NativeID)
			}
			if dest.isrcCalls != 1 || dest.searchCalls != 1 {
				t.Errorf("expected one ISRC lookup then one search, got isrc=%d search=%d", dest.isrcCalls, dest.searchCalls)
			}
		})
	})

	t.Run("ResolveAlbum", func(t *testing.T) {
		t.Run("By UPC", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			rec := destRecord("spotify", "al1", "196589123456", "LP", "Band")
			rec.Kind = models.KindAlbum
			dest.byUPC["196589123456"] = []models.NativeRecord{rec}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			album := models.Album{Title: "LP", Artists: []string{"Band"}, UPC: "196589123456"}

			got, err := r.ResolveAlbum(ctx, album, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.NativeID != "al1" {
				t.Errorf("expected al1, got %s", got.NativeID)
			}
		})

		t.Run("Missing UPC Is Unresolved", func(t *testing.T) {
			r := NewResolver(testEngineStore(t).Cache(), nil)
			_, err := r.ResolveAlbum(ctx, models.Album{Title: "LP"}, newMockCatalog("spotify"))
			if !errors.Is(err, shared.ErrUnresolved) {
				t.Errorf("expected ErrUnresolved, got %v", err)
			}
		})
	})

	t.Run("ResolveArtist", func(t *testing.T) {
		t.Run("Exact Normalized Name", func(t *testing.T) {
			dest := newMockCatalog("spotify")
			rec := destRecord("spotify", "ar1", "", "The Band!", "")
			rec.Kind = models.KindArtist
			dest.searchArtists["The Band"] = []models.NativeRecord{rec}

			r := NewResolver(testEngineStore(t).Cache(), nil)
			got, err := r.ResolveArtist(ctx, models.Artist{Name: "The Band"}, dest)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.NativeID != "ar1" {
				t.Errorf("expected ar1, got %s", got.NativeID)
			}
		})

		t.Run("No Match Is Unresolved", func(t *testing.T) {
			r := NewResolver(testEngineStore(t).Cache(), nil)
			_, err := r.ResolveArtist(ctx, models.Artist{Name: "Nobody"}, newMockCatalog("spotify"))
			if !errors.Is(err, shared.ErrUnresolved) {
				t.Errorf("expected ErrUnresolved, got %v", err)
			}
		})
	})
}
