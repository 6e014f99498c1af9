package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/shared"
)

func testSpotifyService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(shared.SpotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		AccessToken:  "access-token",
	}, server.Client())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	srv.baseURL = server.URL
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Access Token", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "c"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(shared.SpotifyConfig{AccessToken: "tok"}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != SpotifyName {
				t.Errorf("expected name %s, got %s", SpotifyName, srv.Name())
			}
		})
	})

	t.Run("LibrarySongs", func(t *testing.T) {
		t.Run("Walks Offset Pages", func(t *testing.T) {
			var server *httptest.Server
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
					t.Error("expected bearer token on request")
				}

				w.Header().Set("Content-Type", "application/json")
				if r.URL.Query().Get("offset") == "1" {
					json.NewEncoder(w).Encode(map[string]any{
						"items": []map[string]any{{
							"added_at": "2024-02-01T00:00:00Z",
							"track": map[string]any{
								"id":   "t2",
								"name": "Second",
							},
						}},
						"total": 2,
					})
					return
				}
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{
						"added_at": "2024-01-01T00:00:00Z",
						"track": map[string]any{
							"id":          "t1",
							"name":        "First",
							"duration_ms": 180000,
							"artists":     []map[string]any{{"id": "ar1", "name": "Band"}},
							"album": map[string]any{
								"id":           "al1",
								"name":         "LP",
								"release_date": "2019-06-01",
							},
							"external_ids": map[string]string{"isrc": "USABC1234567"},
						},
					}},
					"total": 2,
					"next":  server.URL + "/me/tracks?limit=50&offset=1",
				})
			})
			server = httptest.NewServer(handler)
			t.Cleanup(server.Close)

			srv, err := NewSpotifyService(shared.SpotifyConfig{AccessToken: "tok"}, server.Client())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			srv.baseURL = server.URL

			entries, err := srv.LibrarySongs(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}

			first := entries[0]
			if first.Song.ISRC != "USABC1234567" || first.Song.Title != "First" {
				t.Errorf("unexpected song: %+v", first.Song)
			}
			if first.Song.Year != 2019 {
				t.Errorf("expected year from album release date, got %d", first.Song.Year)
			}
			if first.Record.Service != SpotifyName || first.Record.NativeID != "t1" {
				t.Errorf("unexpected record identity: %+v", first.Record)
			}
			if first.Record.StableKey != "USABC1234567" {
				t.Errorf("expected ISRC stable key, got %q", first.Record.StableKey)
			}
		})

		t.Run("Total Mismatch", func(t *testing.T) {
			srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{"track": map[string]any{"id": "t1"}}},
					"total": 3,
				})
			}))

			_, err := srv.LibrarySongs(context.Background())
			if !errors.Is(err, shared.ErrPaginationMismatch) {
				t.Errorf("expected ErrPaginationMismatch, got %v", err)
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))

			_, err := srv.LibrarySongs(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("LibraryArtists", func(t *testing.T) {
		srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/following" {
				t.Errorf("expected /me/following, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("type") != "artist" {
				t.Errorf("expected type=artist, got %s", r.URL.Query().Get("type"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"artists": map[string]any{
					"items": []map[string]any{{"id": "ar1", "name": "Band"}},
					"total": 1,
				},
			})
		}))

		entries, err := srv.LibraryArtists(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 1 || entries[0].Artist.Name != "Band" {
			t.Errorf("unexpected entries: %+v", entries)
		}
		if entries[0].Record.StableKey != "" {
			t.Errorf("artists have no stable key, got %q", entries[0].Record.StableKey)
		}
	})

	t.Run("SongByISRC", func(t *testing.T) {
		srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected /search, got %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("q"); got != "isrc:USABC1234567" {
				t.Errorf("expected isrc query, got %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{{
						"id":           "t9",
						"name":         "First",
						"external_ids": map[string]string{"isrc": "USABC1234567"},
					}},
					"total": 1,
				},
			})
		}))

		records, err := srv.SongByISRC(context.Background(), "USABC1234567")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 1 || records[0].NativeID != "t9" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("AlbumByUPC", func(t *testing.T) {
		t.Run("No Matches", func(t *testing.T) {
			srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"albums": map[string]any{"items": []any{}, "total": 0},
				})
			}))

			records, err := srv.AlbumByUPC(context.Background(), "000000000000")
			if err != nil {
				t.Fatalf("expected no error for zero matches, got %v", err)
			}
			if len(records) != 0 {
				t.Errorf("expected no records, got %d", len(records))
			}
		})
	})

	t.Run("AddToLibrary", func(t *testing.T) {
		t.Run("Saves Tracks", func(t *testing.T) {
			srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/me/tracks" {
					t.Errorf("expected PUT /me/tracks, got %s %s", r.Method, r.URL.Path)
				}
				if got := r.URL.Query().Get("ids"); got != "a,b" {
					t.Errorf("expected ids=a,b, got %q", got)
				}
				w.WriteHeader(http.StatusOK)
			}))

			if err := srv.AddToLibrary(context.Background(), models.KindSong, []string{"a", "b"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Follows Artists", func(t *testing.T) {
			srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/following" || r.URL.Query().Get("type") != "artist" {
					t.Errorf("expected follow endpoint, got %s?%s", r.URL.Path, r.URL.RawQuery)
				}
				w.WriteHeader(http.StatusNoContent)
			}))

			if err := srv.AddToLibrary(context.Background(), models.KindArtist, []string{"ar1"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Rejects Oversized Batch", func(t *testing.T) {
			srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request should be made for an oversized batch")
			}))

			ids := make([]string, LibrarySongBatchLimit+1)
			err := srv.AddToLibrary(context.Background(), models.KindSong, ids)
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/me":
				json.NewEncoder(w).Encode(map[string]string{"id": "user-1"})
			case "/users/user-1/playlists":
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				if body["name"] != "Mix" {
					t.Errorf("expected playlist name in body, got %+v", body)
				}
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(map[string]string{"id": "pl-new"})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		id, err := srv.CreatePlaylist(context.Background(), models.Playlist{Name: "Mix"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != "pl-new" {
			t.Errorf("expected created id 'pl-new', got %s", id)
		}

		// Second creation reuses the cached user id.
		if _, err := srv.CreatePlaylist(context.Background(), models.Playlist{Name: "Mix 2"}); err != nil {
			t.Fatalf("expected no error on second create, got %v", err)
		}
	})

	t.Run("AddPlaylistItems", func(t *testing.T) {
		srv := testSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl-1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			var body struct {
				URIs []string `json:"uris"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			want := []string{"spotify:track:a", "spotify:track:b"}
			if len(body.URIs) != 2 || body.URIs[0] != want[0] || body.URIs[1] != want[1] {
				t.Errorf("expected ordered track uris, got %+v", body.URIs)
			}
			w.WriteHeader(http.StatusCreated)
		}))

		if err := srv.AddPlaylistItems(context.Background(), "pl-1", []string{"a", "b"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
