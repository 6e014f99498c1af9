// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type externalIDs struct {
	ISRC string `json:"isrc"`
	UPC  string `json:"upc"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Owner         spotifyOwner   `json:"owner"`
	Public        bool           `json:"public"`
	Collaborative bool           `json:"collaborative"`
	Images        []SpotifyImage `json:"images"`
	URI           string         `json:"uri"`
}

// spotifyPlaylistTrack represents a track within a playlist context.
type spotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// spotifySavedTrack represents a track saved in the user's library.
type spotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type spotifySavedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

// spotifyPaging is the offset-pagination envelope: items, a "next" URL,
// and the total item count.
type spotifyPaging[T any] struct {
	Items []T     `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

// SpotifyService implements [Catalog] for Spotify API interactions.
// Uses [oauth2] for bearer token plumbing; token acquisition happens
// outside this process.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	userID     string
}

// NewSpotifyService creates a new Spotify client. The provided base client
// (rate limited, with timeout) is wrapped by the oauth2 transport so token
// refreshes reuse the same pacing.
func NewSpotifyService(cfg shared.SpotifyConfig, base *http.Client) (*SpotifyService, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing spotify access_token", shared.ErrMissingCredentials)
	}

	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: spotifyTokenURL},
	}

	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		httpClient: config.Client(ctx, token),
	}, nil
}

func (s *SpotifyService) Name() string {
	return SpotifyName
}

// doRequest performs an authenticated request. Endpoint may be a path or
// the absolute URL carried by a pagination cursor.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = s.baseURL + endpoint
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: spotify status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d for %s", shared.ErrAPIRequest, resp.StatusCode, endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// fetchPaging adapts one offset-paginated endpoint page to the generic fetcher.
func fetchPaging[T any](ctx context.Context, s *SpotifyService, endpoint, cursor string) (Page[T], error) {
	target := endpoint
	if cursor != "" {
		target = cursor
	}

	var page spotifyPaging[T]
	if err := s.doRequest(ctx, http.MethodGet, target, nil, &page); err != nil {
		return Page[T]{}, err
	}

	out := Page[T]{Items: page.Items}
	total := page.Total
	out.Total = &total
	if page.Next != nil {
		out.Next = *page.Next
	}
	return out, nil
}

func (s *SpotifyService) trackRecord(track SpotifyTrack) models.NativeRecord {
	doc, _ := json.Marshal(track)
	rec := models.NativeRecord{
		Service:   SpotifyName,
		NativeID:  track.ID,
		Kind:      models.KindSong,
		StableKey: track.ExternalIDs.ISRC,
		Name:      track.Name,
		Document:  doc,
	}
	if len(track.Artists) > 0 {
		rec.ArtistName = track.Artists[0].Name
	}
	return rec
}

func (s *SpotifyService) albumRecord(album SpotifyAlbum) models.NativeRecord {
	doc, _ := json.Marshal(album)
	rec := models.NativeRecord{
		Service:   SpotifyName,
		NativeID:  album.ID,
		Kind:      models.KindAlbum,
		StableKey: album.ExternalIDs.UPC,
		Name:      album.Name,
		Document:  doc,
	}
	if len(album.Artists) > 0 {
		rec.ArtistName = album.Artists[0].Name
	}
	return rec
}

func (s *SpotifyService) artistRecord(artist SpotifyArtist) models.NativeRecord {
	doc, _ := json.Marshal(artist)
	return models.NativeRecord{
		Service:  SpotifyName,
		NativeID: artist.ID,
		Kind:     models.KindArtist,
		Name:     artist.Name,
		Document: doc,
	}
}

func songFromTrack(track SpotifyTrack) models.Song {
	song := models.Song{
		ISRC:       track.ExternalIDs.ISRC,
		Title:      track.Name,
		Album:      track.Album.Name,
		DurationMS: track.DurationMS,
	}
	for _, artist := range track.Artists {
		song.Artists = append(song.Artists, artist.Name)
	}
	if len(track.Album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(track.Album.ReleaseDate[:4]); err == nil {
			song.Year = year
		}
	}
	return song
}

// LibrarySongs walks /me/tracks to completion.
func (s *SpotifyService) LibrarySongs(ctx context.Context) ([]SongEntry, error) {
	saved, err := FetchAll(ctx, func(ctx context.Context, cursor string) (Page[spotifySavedTrack], error) {
		return fetchPaging[spotifySavedTrack](ctx, s, "/me/tracks?limit=50", cursor)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]SongEntry, len(saved))
	for i, item := range saved {
		entries[i] = SongEntry{
			Song:   songFromTrack(item.Track),
			Record: s.trackRecord(item.Track),
		}
	}
	return entries, nil
}

// LibraryAlbums walks /me/albums to completion.
func (s *SpotifyService) LibraryAlbums(ctx context.Context) ([]AlbumEntry, error) {
	saved, err := FetchAll(ctx, func(ctx context.Context, cursor string) (Page[spotifySavedAlbum], error) {
		return fetchPaging[spotifySavedAlbum](ctx, s, "/me/albums?limit=50", cursor)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]AlbumEntry, len(saved))
	for i, item := range saved {
		album := models.Album{
			Title: item.Album.Name,
			UPC:   item.Album.ExternalIDs.UPC,
		}
		for _, artist := range item.Album.Artists {
			album.Artists = append(album.Artists, artist.Name)
		}
		entries[i] = AlbumEntry{Album: album, Record: s.albumRecord(item.Album)}
	}
	return entries, nil
}

// LibraryArtists walks the followed-artists endpoint. The envelope nests
// the paging object under "artists" and cursors via full next URLs.
func (s *SpotifyService) LibraryArtists(ctx context.Context) ([]ArtistEntry, error) {
	artists, err := FetchAll(ctx, func(ctx context.Context, cursor string) (Page[SpotifyArtist], error) {
		target := "/me/following?type=artist&limit=50"
		if cursor != "" {
			target = cursor
		}

		var response struct {
			Artists spotifyPaging[SpotifyArtist] `json:"artists"`
		}
		if err := s.doRequest(ctx, http.MethodGet, target, nil, &response); err != nil {
			return Page[SpotifyArtist]{}, err
		}

		out := Page[SpotifyArtist]{Items: response.Artists.Items}
		total := response.Artists.Total
		out.Total = &total
		if response.Artists.Next != nil {
			out.Next = *response.Artists.Next
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]ArtistEntry, len(artists))
	for i, artist := range artists {
		entries[i] = ArtistEntry{
			Artist: models.Artist{Name: artist.Name},
			Record: s.artistRecord(artist),
		}
	}
	return entries, nil
}

// LibraryPlaylists walks /me/playlists, then each playlist's tracks
// endpoint to fill the ordered item list.
func (s *SpotifyService) LibraryPlaylists(ctx context.Context) ([]PlaylistEntry, error) {
	playlists, err := FetchAll(ctx, func(ctx context.Context, cursor string) (Page[SpotifySimplePlaylist], error) {
		return fetchPaging[SpotifySimplePlaylist](ctx, s, "/me/playlists?limit=50", cursor)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]PlaylistEntry, 0, len(playlists))
	for _, sp := range playlists {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", url.PathEscape(sp.ID))
		tracks, err := FetchAll(ctx, func(ctx context.Context, cursor string) (Page[spotifyPlaylistTrack], error) {
			return fetchPaging[spotifyPlaylistTrack](ctx, s, endpoint, cursor)
		})
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", sp.ID, err)
		}

		pl := models.Playlist{
			Name:          sp.Name,
			Description:   sp.Description,
			Owner:         sp.Owner.DisplayName,
			Public:        sp.Public,
			Collaborative: sp.Collaborative,
			Items:         make([]models.PlaylistItem, len(tracks)),
		}
		if len(sp.Images) > 0 {
			pl.ImageURL = sp.Images[0].URL
		}
		for i, item := range tracks {
			pl.Items[i] = models.PlaylistItem{Song: songFromTrack(item.Track)}
			if added, err := time.Parse(time.RFC3339, item.AddedAt); err == nil {
				pl.Items[i].AddedAt = &added
			}
		}

		doc, _ := json.Marshal(sp)
		entries = append(entries, PlaylistEntry{
			Playlist: pl,
			Record: models.NativeRecord{
				Service:  SpotifyName,
				NativeID: sp.ID,
				Kind:     models.KindPlaylist,
				Name:     sp.Name,
				Document: doc,
			},
		})
	}
	return entries, nil
}

// ListeningHistory walks /me/player/recently-played (cursor pagination).
func (s *SpotifyService) ListeningHistory(ctx context.Context) ([]models.HistoryItem, error) {
	type playedItem struct {
		PlayedAt string       `json:"played_at"`
		Track    SpotifyTrack `json:"track"`
	}

	played, err := FetchAll(ctx, func(ctx context.Context, cursor string) (Page[playedItem], error) {
		target := "/me/player/recently-played?limit=50"
		if cursor != "" {
			target = cursor
		}

		var response struct {
			Items []playedItem `json:"items"`
			Next  *string      `json:"next"`
		}
		if err := s.doRequest(ctx, http.MethodGet, target, nil, &response); err != nil {
			return Page[playedItem]{}, err
		}

		out := Page[playedItem]{Items: response.Items}
		if response.Next != nil {
			out.Next = *response.Next
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.HistoryItem, len(played))
	for i, item := range played {
		hi := models.HistoryItem{
			Song:             songFromTrack(item.Track),
			DurationPlayedMS: item.Track.DurationMS,
			SourceType:       "recently-played",
			TrackReference:   item.Track.ExternalIDs.ISRC,
		}
		if ts, err := time.Parse(time.RFC3339, item.PlayedAt); err == nil {
			hi.Timestamp = ts
		}
		items[i] = hi
	}
	return items, nil
}

// SongByISRC queries the search endpoint with an isrc: filter.
func (s *SpotifyService) SongByISRC(ctx context.Context, isrc string) ([]models.NativeRecord, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=10", url.QueryEscape("isrc:"+isrc))

	var response struct {
		Tracks spotifyPaging[SpotifyTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	records := make([]models.NativeRecord, len(response.Tracks.Items))
	for i, track := range response.Tracks.Items {
		records[i] = s.trackRecord(track)
	}
	return records, nil
}

// AlbumByUPC queries the search endpoint with a upc: filter.
func (s *SpotifyService) AlbumByUPC(ctx context.Context, upc string) ([]models.NativeRecord, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=album&limit=10", url.QueryEscape("upc:"+upc))

	var response struct {
		Albums spotifyPaging[SpotifyAlbum] `json:"albums"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	records := make([]models.NativeRecord, len(response.Albums.Items))
	for i, album := range response.Albums.Items {
		records[i] = s.albumRecord(album)
	}
	return records, nil
}

// SearchSongs searches with track: and artist: field filters.
func (s *SpotifyService) SearchSongs(ctx context.Context, title, artist string) ([]models.NativeRecord, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=10", url.QueryEscape(query))

	var response struct {
		Tracks spotifyPaging[SpotifyTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	records := make([]models.NativeRecord, len(response.Tracks.Items))
	for i, track := range response.Tracks.Items {
		records[i] = s.trackRecord(track)
	}
	return records, nil
}

// SearchArtists searches the catalog by artist name.
func (s *SpotifyService) SearchArtists(ctx context.Context, name string) ([]models.NativeRecord, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=artist&limit=10", url.QueryEscape(name))

	var response struct {
		Artists spotifyPaging[SpotifyArtist] `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	records := make([]models.NativeRecord, len(response.Artists.Items))
	for i, artist := range response.Artists.Items {
		records[i] = s.artistRecord(artist)
	}
	return records, nil
}

// AddToLibrary saves tracks/albums or follows artists, one batch per call.
func (s *SpotifyService) AddToLibrary(ctx context.Context, kind models.Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if max := BatchLimitFor(kind); len(ids) > max {
		return fmt.Errorf("%w: %d ids exceeds %s batch limit %d", shared.ErrInvalidArgument, len(ids), kind, max)
	}

	joined := url.QueryEscape(strings.Join(ids, ","))
	switch kind {
	case models.KindSong:
		return s.doRequest(ctx, http.MethodPut, "/me/tracks?ids="+joined, nil, nil)
	case models.KindAlbum:
		return s.doRequest(ctx, http.MethodPut, "/me/albums?ids="+joined, nil, nil)
	case models.KindArtist:
		return s.doRequest(ctx, http.MethodPut, "/me/following?type=artist&ids="+joined, nil, nil)
	default:
		return fmt.Errorf("%w: kind %s has no library add endpoint", shared.ErrInvalidArgument, kind)
	}
}

// currentUserID fetches and caches the authenticated user's id, needed for
// playlist creation.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return "", err
	}

	s.userID = user.ID
	return user.ID, nil
}

// CreatePlaylist creates a playlist for the current user and returns its id.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, pl models.Playlist) (string, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"name":          pl.Name,
		"description":   pl.Description,
		"public":        pl.Public,
		"collaborative": pl.Collaborative,
	}

	var created struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// AddPlaylistItems appends tracks to a playlist, preserving order.
func (s *SpotifyService) AddPlaylistItems(ctx context.Context, playlistID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > PlaylistItemBatchLimit {
		return fmt.Errorf("%w: %d ids exceeds playlist batch limit %d", shared.ErrInvalidArgument, len(ids), PlaylistItemBatchLimit)
	}

	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = "spotify:track:" + id
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"uris": uris}, nil)
}
