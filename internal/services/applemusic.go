// Apple Music API implementation of [Catalog]
//
// Response types based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/shared"
)

const appleMusicBaseURL = "https://api.music.apple.com"

// appleMusicAttributes covers the attribute fields this engine reads from
// catalog and library resources. Unknown fields are preserved in the raw
// document, not here.
type appleMusicAttributes struct {
	Name             string `json:"name"`
	ArtistName       string `json:"artistName"`
	AlbumName        string `json:"albumName"`
	ISRC             string `json:"isrc,omitempty"`
	UPC              string `json:"upc,omitempty"`
	DurationInMillis int    `json:"durationInMillis,omitempty"`
	ReleaseDate      string `json:"releaseDate,omitempty"`
	TrackCount       int    `json:"trackCount,omitempty"`
	Description      struct {
		Standard string `json:"standard"`
	} `json:"description,omitempty"`
	Artwork struct {
		URL string `json:"url"`
	} `json:"artwork,omitempty"`
	LastModifiedDate string `json:"lastModifiedDate,omitempty"`
	PlayParams       struct {
		ID        string `json:"id"`
		CatalogID string `json:"catalogId,omitempty"`
	} `json:"playParams,omitempty"`
}

// appleMusicResource is one entry of a "data" array.
type appleMusicResource struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	Attributes    appleMusicAttributes `json:"attributes"`
	Relationships *struct {
		Catalog struct {
			Data []appleMusicResource `json:"data"`
		} `json:"catalog"`
	} `json:"relationships,omitempty"`
}

// appleMusicPage is the paginated envelope returned by library endpoints:
// a data array, a relative "next" URL, and meta.total.
type appleMusicPage struct {
	Data []appleMusicResource `json:"data"`
	Next string               `json:"next"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta,omitempty"`
}

// AppleMusicService implements [Catalog] for the Apple Music API.
//
// Requests carry the developer token as a bearer credential; user-scoped
// endpoints additionally send the Music-User-Token header.
type AppleMusicService struct {
	baseURL        string
	storefront     string
	developerToken string
	musicUserToken string
	httpClient     *http.Client
}

// NewAppleMusicService creates a new Apple Music client from credentials.
// The client is constructed once at startup and shared for the whole run.
func NewAppleMusicService(cfg shared.AppleMusicConfig, client *http.Client) (*AppleMusicService, error) {
	if cfg.DeveloperToken == "" {
		return nil, fmt.Errorf("%w: missing apple music developer_token", shared.ErrMissingCredentials)
	}
	if cfg.Storefront == "" {
		cfg.Storefront = "us"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &AppleMusicService{
		baseURL:        appleMusicBaseURL,
		storefront:     cfg.Storefront,
		developerToken: cfg.DeveloperToken,
		musicUserToken: cfg.MusicUserToken,
		httpClient:     client,
	}, nil
}

func (a *AppleMusicService) Name() string {
	return AppleMusicName
}

// doRequest performs an authenticated request. Endpoint may be a path or
// the absolute URL a pagination cursor carries. userScoped adds the
// Music-User-Token header for /me endpoints.
func (a *AppleMusicService) doRequest(ctx context.Context, method, endpoint string, userScoped bool, body, result any) error {
	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = a.baseURL + endpoint
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

	req.Header.Set("Authorization", "Bearer "+a.developerToken)
	req.Header.Set("Content-Type", "application/json")
	if userScoped {
		if a.musicUserToken == "" {
			return fmt.Errorf("%w: missing music_user_token", shared.ErrNotAuthenticated)
		}
		req.Header.Set("Music-User-Token", a.musicUserToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: apple music status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: apple music status %d for %s", shared.ErrAPIRequest, resp.StatusCode, endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// fetchLibraryPage adapts one library endpoint page to the generic fetcher.
func (a *AppleMusicService) fetchLibraryPage(ctx context.Context, endpoint, cursor string) (Page[appleMusicResource], error) {
	target := endpoint
	if cursor != "" {
		target = cursor
	}

	var page appleMusicPage
	if err := a.doRequest(ctx, http.MethodGet, target, true, nil, &page); err != nil {
		return Page[appleMusicResource]{}, err
	}

	out := Page[appleMusicResource]{Items: page.Data, Next: page.Next}
	if page.Meta != nil {
		total := page.Meta.Total
		out.Total = &total
	}
	return out, nil
}

// walkLibrary walks a library list endpoint to completion.
func (a *AppleMusicService) walkLibrary(ctx context.Context, endpoint string) ([]appleMusicResource, error) {
	return FetchAll(ctx, func(ctx context.Context, cursor string) (Page[appleMusicResource], error) {
		return a.fetchLibraryPage(ctx, endpoint, cursor)
	})
}

// catalogOf returns the linked catalog resource when the library walk was
// made with include=catalog, else the resource itself.
func catalogOf(res appleMusicResource) appleMusicResource {
	if res.Relationships != nil && len(res.Relationships.Catalog.Data) > 0 {
		return res.Relationships.Catalog.Data[0]
	}
	return res
}

// nativeRecord converts a resource into the service-native wrapper.
func (a *AppleMusicService) nativeRecord(res appleMusicResource, kind models.Kind) models.NativeRecord {
	doc, _ := json.Marshal(res)
	cat := catalogOf(res)

	stableKey := cat.Attributes.ISRC
	if kind == models.KindAlbum {
		stableKey = cat.Attributes.UPC
	} else if kind == models.KindArtist {
		stableKey = ""
	}

	return models.NativeRecord{
		Service:    AppleMusicName,
		NativeID:   res.ID,
		Kind:       kind,
		StableKey:  stableKey,
		Name:       res.Attributes.Name,
		ArtistName: res.Attributes.ArtistName,
		Document:   doc,
	}
}

func (a *AppleMusicService) songFromResource(res appleMusicResource) models.Song {
	cat := catalogOf(res)
	song := models.Song{
		ISRC:       cat.Attributes.ISRC,
		Title:      res.Attributes.Name,
		Album:      res.Attributes.AlbumName,
		Artists:    []string{res.Attributes.ArtistName},
		DurationMS: res.Attributes.DurationInMillis,
	}
	if song.DurationMS == 0 {
		song.DurationMS = cat.Attributes.DurationInMillis
	}
	if len(cat.Attributes.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(cat.Attributes.ReleaseDate[:4]); err == nil {
			song.Year = year
		}
	}
	return song
}

// LibrarySongs walks /v1/me/library/songs with the linked catalog data so
// each song carries its ISRC.
func (a *AppleMusicService) LibrarySongs(ctx context.Context) ([]SongEntry, error) {
	resources, err := a.walkLibrary(ctx, "/v1/me/library/songs?include=catalog")
	if err != nil {
		return nil, err
	}

	entries := make([]SongEntry, len(resources))
	for i, res := range resources {
		entries[i] = SongEntry{
			Song:   a.songFromResource(res),
			Record: a.nativeRecord(res, models.KindSong),
		}
	}
	return entries, nil
}

// LibraryAlbums walks /v1/me/library/albums with linked catalog data for
// the UPC.
func (a *AppleMusicService) LibraryAlbums(ctx context.Context) ([]AlbumEntry, error) {
	resources, err := a.walkLibrary(ctx, "/v1/me/library/albums?include=catalog")
	if err != nil {
		return nil, err
	}

	entries := make([]AlbumEntry, len(resources))
	for i, res := range resources {
		cat := catalogOf(res)
		entries[i] = AlbumEntry{
			Album: models.Album{
				Title:   res.Attributes.Name,
				Artists: []string{res.Attributes.ArtistName},
				UPC:     cat.Attributes.UPC,
			},
			Record: a.nativeRecord(res, models.KindAlbum),
		}
	}
	return entries, nil
}

// LibraryArtists walks /v1/me/library/artists.
func (a *AppleMusicService) LibraryArtists(ctx context.Context) ([]ArtistEntry, error) {
	resources, err := a.walkLibrary(ctx, "/v1/me/library/artists")
	if err != nil {
		return nil, err
	}

	entries := make([]ArtistEntry, len(resources))
	for i, res := range resources {
		entries[i] = ArtistEntry{
			Artist: models.Artist{Name: res.Attributes.Name},
			Record: a.nativeRecord(res, models.KindArtist),
		}
	}
	return entries, nil
}

// LibraryPlaylists walks /v1/me/library/playlists, then walks each
// playlist's tracks endpoint (extend=isrc) to fill the ordered item list.
func (a *AppleMusicService) LibraryPlaylists(ctx context.Context) ([]PlaylistEntry, error) {
	resources, err := a.walkLibrary(ctx, "/v1/me/library/playlists")
	if err != nil {
		return nil, err
	}

	entries := make([]PlaylistEntry, 0, len(resources))
	for _, res := range resources {
		tracksEndpoint := fmt.Sprintf("/v1/me/library/playlists/%s/tracks?extend=isrc", url.PathEscape(res.ID))
		tracks, err := a.walkLibrary(ctx, tracksEndpoint)
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", res.ID, err)
		}

		pl := models.Playlist{
			Name:        res.Attributes.Name,
			Description: res.Attributes.Description.Standard,
			ImageURL:    res.Attributes.Artwork.URL,
			Items:       make([]models.PlaylistItem, len(tracks)),
		}
		for i, track := range tracks {
			pl.Items[i] = models.PlaylistItem{Song: a.songFromResource(track)}
		}

		entries = append(entries, PlaylistEntry{
			Playlist: pl,
			Record:   a.nativeRecord(res, models.KindPlaylist),
		})
	}
	return entries, nil
}

// ListeningHistory walks /v1/me/recent/played/tracks.
//
// The endpoint reports recently played songs but not per-play timestamps,
// so items carry a zero Timestamp and the source type marks their origin.
func (a *AppleMusicService) ListeningHistory(ctx context.Context) ([]models.HistoryItem, error) {
	resources, err := a.walkLibrary(ctx, "/v1/me/recent/played/tracks")
	if err != nil {
		return nil, err
	}

	items := make([]models.HistoryItem, len(resources))
	for i, res := range resources {
		items[i] = models.HistoryItem{
			Song:           a.songFromResource(res),
			SourceType:     "recently-played",
			TrackReference: catalogOf(res).Attributes.ISRC,
		}
	}
	return items, nil
}

// catalogFilter queries a catalog collection endpoint with a filter param
// and wraps every result.
func (a *AppleMusicService) catalogFilter(ctx context.Context, collection, filter, value string, kind models.Kind) ([]models.NativeRecord, error) {
	endpoint := fmt.Sprintf("/v1/catalog/%s/%s?%s=%s",
		url.PathEscape(a.storefront), collection, filter, url.QueryEscape(value))

	var page appleMusicPage
	if err := a.doRequest(ctx, http.MethodGet, endpoint, false, nil, &page); err != nil {
		return nil, err
	}

	records := make([]models.NativeRecord, len(page.Data))
	for i, res := range page.Data {
		records[i] = a.nativeRecord(res, kind)
	}
	return records, nil
}

// SongByISRC filters the catalog songs collection by ISRC.
func (a *AppleMusicService) SongByISRC(ctx context.Context, isrc string) ([]models.NativeRecord, error) {
	return a.catalogFilter(ctx, "songs", "filter[isrc]", isrc, models.KindSong)
}

// AlbumByUPC filters the catalog albums collection by UPC.
func (a *AppleMusicService) AlbumByUPC(ctx context.Context, upc string) ([]models.NativeRecord, error) {
	return a.catalogFilter(ctx, "albums", "filter[upc]", upc, models.KindAlbum)
}

// search queries the catalog search endpoint for one resource type.
func (a *AppleMusicService) search(ctx context.Context, term, resourceType string, kind models.Kind) ([]models.NativeRecord, error) {
	endpoint := fmt.Sprintf("/v1/catalog/%s/search?types=%s&limit=10&term=%s",
		url.PathEscape(a.storefront), resourceType, url.QueryEscape(term))

	var response struct {
		Results map[string]appleMusicPage `json:"results"`
	}
	if err := a.doRequest(ctx, http.MethodGet, endpoint, false, nil, &response); err != nil {
		return nil, err
	}

	group, ok := response.Results[resourceType]
	if !ok {
		return nil, nil
	}

	records := make([]models.NativeRecord, len(group.Data))
	for i, res := range group.Data {
		records[i] = a.nativeRecord(res, kind)
	}
	return records, nil
}

// SearchSongs searches the catalog by title and artist.
func (a *AppleMusicService) SearchSongs(ctx context.Context, title, artist string) ([]models.NativeRecord, error) {
	return a.search(ctx, strings.TrimSpace(title+" "+artist), "songs", models.KindSong)
}

// SearchArtists searches the catalog by artist name.
func (a *AppleMusicService) SearchArtists(ctx context.Context, name string) ([]models.NativeRecord, error) {
	return a.search(ctx, name, "artists", models.KindArtist)
}

// AddToLibrary adds catalog resources to the user's library via
// POST /v1/me/library?ids[kind]=… (the service answers 202 Accepted).
func (a *AppleMusicService) AddToLibrary(ctx context.Context, kind models.Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if max := BatchLimitFor(kind); len(ids) > max {
		return fmt.Errorf("%w: %d ids exceeds %s batch limit %d", shared.ErrInvalidArgument, len(ids), kind, max)
	}

	resourceType := map[models.Kind]string{
		models.KindSong:   "songs",
		models.KindAlbum:  "albums",
		models.KindArtist: "artists",
	}[kind]
	if resourceType == "" {
		return fmt.Errorf("%w: kind %s has no library add endpoint", shared.ErrInvalidArgument, kind)
	}

	endpoint := fmt.Sprintf("/v1/me/library?ids[%s]=%s", resourceType, url.QueryEscape(strings.Join(ids, ",")))
	return a.doRequest(ctx, http.MethodPost, endpoint, true, nil, nil)
}

// CreatePlaylist creates a library playlist and returns its native id.
func (a *AppleMusicService) CreatePlaylist(ctx context.Context, pl models.Playlist) (string, error) {
	body := map[string]any{
		"attributes": map[string]string{
			"name":        pl.Name,
			"description": pl.Description,
		},
	}

	var response appleMusicPage
	if err := a.doRequest(ctx, http.MethodPost, "/v1/me/library/playlists", true, body, &response); err != nil {
		return "", err
	}
	if len(response.Data) == 0 {
		return "", fmt.Errorf("%w: playlist creation returned no resource", shared.ErrAPIRequest)
	}
	return response.Data[0].ID, nil
}

// AddPlaylistItems appends catalog songs to a library playlist, preserving
// the given order.
func (a *AppleMusicService) AddPlaylistItems(ctx context.Context, playlistID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > PlaylistItemBatchLimit {
		return fmt.Errorf("%w: %d ids exceeds playlist batch limit %d", shared.ErrInvalidArgument, len(ids), PlaylistItemBatchLimit)
	}

	data := make([]map[string]string, len(ids))
	for i, id := range ids {
		data[i] = map[string]string{"id": id, "type": "songs"}
	}

	endpoint := fmt.Sprintf("/v1/me/library/playlists/%s/tracks", url.PathEscape(playlistID))
	return a.doRequest(ctx, http.MethodPost, endpoint, true, map[string]any{"data": data}, nil)
}
