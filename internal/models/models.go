package models

import "time"

// Song represents a recording. Two songs with the same ISRC are the same
// real-world recording regardless of which service reported them; once
// known, the ISRC never changes and is the sole cross-service join key.
type Song struct {
	ISRC       string   `json:"isrc,omitempty"`
	Title      string   `json:"title"`
	Album      string   `json:"album,omitempty"`
	Artists    []string `json:"artists"`
	Year       int      `json:"year,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
}

// Artist returns the primary artist name, or "" for an empty artist list.
func (s Song) Artist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0]
}

// Album represents a commercial release, joined across services by UPC.
type Album struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	UPC     string   `json:"upc,omitempty"`
	Songs   []Song   `json:"songs,omitempty"`
}

// Artist has no stable external key in this domain; cross-service identity
// is best-effort normalized name equality.
type Artist struct {
	Name string `json:"name"`
}

// PlaylistItem is one entry of a playlist. Ordering is positional and is
// preserved from source to destination.
type PlaylistItem struct {
	Song    Song       `json:"song"`
	AddedAt *time.Time `json:"added_at,omitempty"`
}

// Playlist represents a user playlist with its ordered items.
type Playlist struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	LastModified  *time.Time     `json:"last_modified,omitempty"`
	Owner         string         `json:"owner,omitempty"`
	Public        bool           `json:"public,omitempty"`
	Collaborative bool           `json:"collaborative,omitempty"`
	Items         []PlaylistItem `json:"items"`
}

// HistoryItem represents one listen from a user's play history.
type HistoryItem struct {
	Timestamp                time.Time `json:"timestamp"`
	Song                     Song      `json:"song"`
	DurationPlayedMS         int       `json:"duration_played_ms"`
	Country                  string    `json:"country,omitempty"`
	MediaType                string    `json:"media_type,omitempty"`
	EndReason                string    `json:"end_reason,omitempty"`
	SourceType               string    `json:"source_type,omitempty"`
	PlayCount                int       `json:"play_count,omitempty"`
	SkipCount                int       `json:"skip_count,omitempty"`
	IgnoreForRecommendations bool      `json:"ignore_for_recommendations,omitempty"`
	Description              string    `json:"description,omitempty"`
	TrackReference           string    `json:"track_reference,omitempty"`
}

// Library aggregates a user's library contents for one sync run.
type Library struct {
	Songs     []Song        `json:"songs,omitempty"`
	Albums    []Album       `json:"albums,omitempty"`
	Artists   []Artist      `json:"artists,omitempty"`
	Playlists []Playlist    `json:"playlists,omitempty"`
	History   []HistoryItem `json:"history,omitempty"`
}

// Kind enumerates the resource kinds the engine synchronizes independently.
type Kind string

const (
	KindSong     Kind = "songs"
	KindAlbum    Kind = "albums"
	KindArtist   Kind = "artists"
	KindPlaylist Kind = "playlists"
	KindHistory  Kind = "history"
)

// Kinds lists every resource kind in sync order.
func Kinds() []Kind {
	return []Kind{KindSong, KindAlbum, KindArtist, KindPlaylist, KindHistory}
}
