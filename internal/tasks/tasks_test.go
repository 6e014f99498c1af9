package tasks

import (
	"context"
	"fmt"
	"testing"

	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/services"
	"github.com/nocturne-labs/tunesync/internal/store"
)

// mockCatalog implements services.Catalog with canned data and call
// counters for the engine and resolver tests.
type mockCatalog struct {
	name      string
	songs     []services.SongEntry
	albums    []services.AlbumEntry
	artists   []services.ArtistEntry
	playlists []services.PlaylistEntry
	history   []models.HistoryItem

	songsErr     error
	albumsErr    error
	artistsErr   error
	playlistsErr error
	historyErr   error

	byISRC        map[string][]models.NativeRecord
	byUPC         map[string][]models.NativeRecord
	searchSongs   map[string][]models.NativeRecord
	searchArtists map[string][]models.NativeRecord
	lookupErr     error // returned from every lookup call

	isrcCalls   int
	upcCalls    int
	searchCalls int

	added        map[models.Kind][][]string
	addCalls     int
	addFailOn    map[int]error // 1-based call number → error
	createErr    error
	createdID    string
	created      []models.Playlist
	playlistAdds map[string][][]string
}

func newMockCatalog(name string) *mockCatalog {
	return &mockCatalog{
		name:          name,
		byISRC:        map[string][]models.NativeRecord{},
		byUPC:         map[string][]models.NativeRecord{},
		searchSongs:   map[string][]models.NativeRecord{},
		searchArtists: map[string][]models.NativeRecord{},
		added:         map[models.Kind][][]string{},
		addFailOn:     map[int]error{},
		playlistAdds:  map[string][][]string{},
		createdID:     "dest-pl-1",
	}
}

func (m *mockCatalog) Name() string { return m.name }

func (m *mockCatalog) LibrarySongs(ctx context.Context) ([]services.SongEntry, error) {
	return m.songs, m.songsErr
}

func (m *mockCatalog) LibraryAlbums(ctx context.Context) ([]services.AlbumEntry, error) {
	return m.albums, m.albumsErr
}

func (m *mockCatalog) LibraryArtists(ctx context.Context) ([]services.ArtistEntry, error) {
	return m.artists, m.artistsErr
}

func (m *mockCatalog) LibraryPlaylists(ctx context.Context) ([]services.PlaylistEntry, error) {
	return m.playlists, m.playlistsErr
}

func (m *mockCatalog) ListeningHistory(ctx context.Context) ([]models.HistoryItem, error) {
	return m.history, m.historyErr
}

func (m *mockCatalog) SongByISRC(ctx context.Context, isrc string) ([]models.NativeRecord, error) {
	m.isrcCalls++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.byISRC[isrc], nil
}

func (m *mockCatalog) AlbumByUPC(ctx context.Context, upc string) ([]models.NativeRecord, error) {
	m.upcCalls++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.byUPC[upc], nil
}

func (m *mockCatalog) SearchSongs(ctx context.Context, title, artist string) ([]models.NativeRecord, error) {
	m.searchCalls++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.searchSongs[title+"|"+artist], nil
}

func (m *mockCatalog) SearchArtists(ctx context.Context, name string) ([]models.NativeRecord, error) {
	m.searchCalls++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.searchArtists[name], nil
}

func (m *mockCatalog) AddToLibrary(ctx context.Context, kind models.Kind, ids []string) error {
	m.addCalls++
	if err := m.addFailOn[m.addCalls]; err != nil {
		return err
	}
	m.added[kind] = append(m.added[kind], ids)
	return nil
}

func (m *mockCatalog) CreatePlaylist(ctx context.Context, pl models.Playlist) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, pl)
	return m.createdID, nil
}

func (m *mockCatalog) AddPlaylistItems(ctx context.Context, playlistID string, ids []string) error {
	m.addCalls++
	if err := m.addFailOn[m.addCalls]; err != nil {
		return err
	}
	m.playlistAdds[playlistID] = append(m.playlistAdds[playlistID], ids)
	return nil
}

func testEngineStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// destRecord builds a destination-side native record for mock lookups.
func destRecord(service, nativeID, isrc, name, artist string) models.NativeRecord {
	return models.NativeRecord{
		Service:    service,
		NativeID:   nativeID,
		Kind:       models.KindSong,
		StableKey:  isrc,
		Name:       name,
		ArtistName: artist,
		Document:   []byte(fmt.Sprintf(`{"id":%q}`, nativeID)),
	}
}

// sourceSong builds a source-side song entry with its native record.
func sourceSong(nativeID, isrc, title, artist string) services.SongEntry {
	return services.SongEntry{
		Song: models.Song{ISRC: isrc, Title: title, Artists: []string{artist}},
		Record: models.NativeRecord{
			Service:    "applemusic",
			NativeID:   nativeID,
			Kind:       models.KindSong,
			StableKey:  isrc,
			Name:       title,
			ArtistName: artist,
			Document:   []byte(`{}`),
		},
	}
}
