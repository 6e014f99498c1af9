package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/services"
	"github.com/nocturne-labs/tunesync/internal/shared"
	"github.com/nocturne-labs/tunesync/internal/store"
)

// RunState tracks where a sync operation is in its lifecycle. Once a
// library has been read consistently, item-level problems degrade to
// skips instead of failing the run; authentication failures are the
// exception and fail the run from any state.
type RunState int

const (
	StateIdle RunState = iota
	StateReading
	StateResolving
	StateWriting
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateResolving:
		return "resolving"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// KindReport summarizes one kind's outcome within a run. Kinds are
// processed independently; a report with Err set never stops the others.
type KindReport struct {
	Kind       models.Kind `json:"kind"`
	Read       int         `json:"read"`
	Resolved   int         `json:"resolved"`
	Written    int         `json:"written"`
	Skipped    int         `json:"skipped"`
	Unresolved []string    `json:"unresolved,omitempty"`
	Err        error       `json:"-"`
}

// IngestResult contains all data from an ingest run.
type IngestResult struct {
	RunID   string        `json:"run_id"`
	State   RunState      `json:"-"`
	Reports []*KindReport `json:"reports"`
}

// ExportResult contains all data from a library export run.
type ExportResult struct {
	State   RunState      `json:"-"`
	Reports []*KindReport `json:"reports"`
}

// PlaylistReport summarizes one playlist's export outcome.
type PlaylistReport struct {
	Name       string   `json:"name"`
	DestID     string   `json:"dest_id,omitempty"`
	Read       int      `json:"read"`
	Resolved   int      `json:"resolved"`
	Written    int      `json:"written"`
	Unresolved []string `json:"unresolved,omitempty"`
	Err        error    `json:"-"`
}

// PlaylistExportResult contains all data from a playlist export run.
type PlaylistExportResult struct {
	State   RunState          `json:"-"`
	Reports []*PlaylistReport `json:"reports"`
}

// SyncEngine defines the operations for syncing a library between services.
type SyncEngine interface {
	// IngestLibrary reads the source library kind by kind, caches the
	// native records, and appends a canonical snapshot under a new run id.
	IngestLibrary(ctx context.Context, progress chan<- ProgressUpdate, kinds []models.Kind) (*IngestResult, error)

	// ExportLibrary replays the latest snapshot of each kind onto the
	// destination: resolve each entity, then add them in batches.
	ExportLibrary(ctx context.Context, progress chan<- ProgressUpdate, kinds []models.Kind) (*ExportResult, error)

	// ExportPlaylists recreates snapshotted playlists on the destination,
	// preserving item order and dropping unresolved items.
	ExportPlaylists(ctx context.Context, progress chan<- ProgressUpdate, names []string) (*PlaylistExportResult, error)
}

// LibraryEngine implements SyncEngine between a source and a destination
// catalog, persisting through a document store.
type LibraryEngine struct {
	source   services.Catalog
	dest     services.Catalog
	store    *store.Store
	resolver *Resolver
	logger   *log.Logger
}

// NewLibraryEngine creates a LibraryEngine with the provided services and
// store.
func NewLibraryEngine(source, dest services.Catalog, st *store.Store, logger *log.Logger) *LibraryEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &LibraryEngine{
		source:   source,
		dest:     dest,
		store:    st,
		resolver: NewResolver(st.Cache(), logger),
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// IngestLibrary reads each requested kind from the source service. All
// requested kinds are attempted; the run fails only when every kind's
// read fails, except that an authentication failure stops the run at
// once instead of retrying each remaining kind against dead credentials.
func (e *LibraryEngine) IngestLibrary(ctx context.Context, progress chan<- ProgressUpdate, kinds []models.Kind) (*IngestResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if len(kinds) == 0 {
		kinds = models.Kinds()
	}

	result := &IngestResult{RunID: shared.GenerateID(), State: StateReading}
	failures := 0

	for _, kind := range kinds {
		report := &KindReport{Kind: kind}
		result.Reports = append(result.Reports, report)

		e.sendProgress(progress, readingUpdate(kind, e.source.Name()))
		if err := e.ingestKind(ctx, result.RunID, kind, report); err != nil {
			report.Err = err
			if errors.Is(err, shared.ErrNotAuthenticated) {
				result.State = StateFailed
				return result, err
			}
			failures++
			e.logger.Error("ingest failed", "kind", kind, "error", err)
			continue
		}

		e.sendProgress(progress, readUpdate(kind, report.Read))
		e.sendProgress(progress, snapshotUpdate(kind, result.RunID, report.Read))
		e.logger.Info("ingested", "kind", kind, "count", report.Read, "run_id", result.RunID)
	}

	if failures == len(kinds) {
		result.State = StateFailed
		return result, fmt.Errorf("%w: every kind failed to ingest", shared.ErrAPIRequest)
	}
	result.State = StateDone
	return result, nil
}

// ingestKind reads one kind, caches its native records, and snapshots its
// canonical documents.
func (e *LibraryEngine) ingestKind(ctx context.Context, runID string, kind models.Kind, report *KindReport) error {
	var (
		records []models.NativeRecord
		keys    []string
		docs    []any
	)

	switch kind {
	case models.KindSong:
		entries, err := e.source.LibrarySongs(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			records = append(records, entry.Record)
			keys = append(keys, entry.Song.ISRC)
			docs = append(docs, entry.Song)
		}
	case models.KindAlbum:
		entries, err := e.source.LibraryAlbums(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			records = append(records, entry.Record)
			keys = append(keys, entry.Album.UPC)
			docs = append(docs, entry.Album)
		}
	case models.KindArtist:
		entries, err := e.source.LibraryArtists(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			records = append(records, entry.Record)
			keys = append(keys, "")
			docs = append(docs, entry.Artist)
		}
	case models.KindPlaylist:
		entries, err := e.source.LibraryPlaylists(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			records = append(records, entry.Record)
			keys = append(keys, "")
			docs = append(docs, entry.Playlist)
		}
	case models.KindHistory:
		items, err := e.source.ListeningHistory(ctx)
		if err != nil {
			return err
		}
		for _, item := range items {
			keys = append(keys, item.Song.ISRC)
			docs = append(docs, item)
		}
	default:
		return fmt.Errorf("%w: unknown kind %s", shared.ErrInvalidArgument, kind)
	}

	if len(records) > 0 {
		if err := e.store.Cache().PutAll(ctx, records); err != nil {
			return err
		}
	}
	if err := e.store.Snapshots().Write(ctx, runID, string(kind), keys, docs); err != nil {
		return err
	}

	report.Read = len(docs)
	return nil
}

// IngestCanonical snapshots an already-canonical library under a new run
// id. This is the hand-off point for offline vendor exports: the parsing
// layer outside this process converts them to the canonical model, and
// from here on export treats them exactly like an API-walked library.
// There are no native records to cache.
func (e *LibraryEngine) IngestCanonical(ctx context.Context, progress chan<- ProgressUpdate, lib models.Library) (*IngestResult, error) {
	result := &IngestResult{RunID: shared.GenerateID(), State: StateReading}

	snapshot := func(kind models.Kind, keys []string, docs []any) error {
		if len(docs) == 0 {
			return nil
		}
		report := &KindReport{Kind: kind, Read: len(docs)}
		result.Reports = append(result.Reports, report)

		if err := e.store.Snapshots().Write(ctx, result.RunID, string(kind), keys, docs); err != nil {
			report.Err = err
			return err
		}
		e.sendProgress(progress, snapshotUpdate(kind, result.RunID, report.Read))
		return nil
	}

	var (
		keys []string
		docs []any
	)
	for _, song := range lib.Songs {
		keys = append(keys, song.ISRC)
		docs = append(docs, song)
	}
	if err := snapshot(models.KindSong, keys, docs); err != nil {
		result.State = StateFailed
		return result, err
	}

	keys, docs = nil, nil
	for _, album := range lib.Albums {
		keys = append(keys, album.UPC)
		docs = append(docs, album)
	}
	if err := snapshot(models.KindAlbum, keys, docs); err != nil {
		result.State = StateFailed
		return result, err
	}

	keys, docs = nil, nil
	for _, artist := range lib.Artists {
		keys = append(keys, "")
		docs = append(docs, artist)
	}
	if err := snapshot(models.KindArtist, keys, docs); err != nil {
		result.State = StateFailed
		return result, err
	}

	keys, docs = nil, nil
	for _, pl := range lib.Playlists {
		keys = append(keys, "")
		docs = append(docs, pl)
	}
	if err := snapshot(models.KindPlaylist, keys, docs); err != nil {
		result.State = StateFailed
		return result, err
	}

	keys, docs = nil, nil
	for _, item := range lib.History {
		keys = append(keys, item.Song.ISRC)
		docs = append(docs, item)
	}
	if err := snapshot(models.KindHistory, keys, docs); err != nil {
		result.State = StateFailed
		return result, err
	}

	result.State = StateDone
	return result, nil
}

// latestSnapshot returns the documents of the newest run in a collection.
func (e *LibraryEngine) latestSnapshot(ctx context.Context, collection string) ([]json.RawMessage, error) {
	runs, err := e.store.Snapshots().Runs(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no %s snapshot, run ingest first", shared.ErrNotFound, collection)
	}
	return e.store.Snapshots().ReadRun(ctx, runs[0].RunID, collection)
}

// ExportLibrary replays the latest snapshots onto the destination.
// Supported kinds are songs, albums, and artists; playlists go through
// ExportPlaylists and history is read-only.
func (e *LibraryEngine) ExportLibrary(ctx context.Context, progress chan<- ProgressUpdate, kinds []models.Kind) (*ExportResult, error) {
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}
	if len(kinds) == 0 {
		kinds = []models.Kind{models.KindSong, models.KindAlbum, models.KindArtist}
	}

	result := &ExportResult{State: StateReading}
	failures := 0

	for _, kind := range kinds {
		report := &KindReport{Kind: kind}
		result.Reports = append(result.Reports, report)

		if kind == models.KindPlaylist || kind == models.KindHistory {
			report.Err = fmt.Errorf("%w: kind %s is not library-exportable", shared.ErrInvalidArgument, kind)
			failures++
			continue
		}

		if err := e.exportKind(ctx, progress, kind, report); err != nil {
			report.Err = err
			if errors.Is(err, shared.ErrNotAuthenticated) {
				result.State = StateFailed
				return result, err
			}
			failures++
			e.logger.Error("export failed", "kind", kind, "error", err)
		}
	}

	if failures == len(kinds) {
		result.State = StateFailed
		return result, fmt.Errorf("%w: every kind failed to export", shared.ErrAPIRequest)
	}
	result.State = StateDone
	return result, nil
}

// exportKind resolves one kind's snapshotted entities on the destination
// and writes them in batches. Unresolved entities are skipped and named
// in the report; a failed batch chunk skips only its own ids. An
// authentication failure aborts instead of degrading to a skip: every
// later lookup would fail the same way.
func (e *LibraryEngine) exportKind(ctx context.Context, progress chan<- ProgressUpdate, kind models.Kind, report *KindReport) error {
	docs, err := e.latestSnapshot(ctx, string(kind))
	if err != nil {
		return err
	}
	report.Read = len(docs)

	var ids []string
	for i, doc := range docs {
		name, rec, err := e.resolveDocument(ctx, kind, doc)
		e.sendProgress(progress, resolvingUpdate(kind, i+1, len(docs), name))
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				return err
			}
			report.Skipped++
			report.Unresolved = append(report.Unresolved, name)
			e.sendProgress(progress, unresolvedUpdate(kind, i+1, len(docs), name))
			e.logger.Warn("skipping item", "kind", kind, "name", name, "error", err)
			continue
		}
		report.Resolved++
		ids = append(ids, rec.NativeID)
	}

	limit := services.BatchLimitFor(kind)
	chunks, err := WriteBatches(ctx, limit, ids, func(ctx context.Context, chunk []string) error {
		e.sendProgress(progress, writingUpdate(kind, 0, 0, len(chunk)))
		return e.dest.AddToLibrary(ctx, kind, chunk)
	})
	if err != nil {
		return err
	}

	report.Written = WrittenCount(chunks)
	report.Skipped += FailedCount(chunks)
	for _, chunk := range chunks {
		if chunk.Err != nil {
			e.logger.Error("batch write failed", "kind", kind, "chunk", chunk.Index,
				"size", len(chunk.IDs), "error", chunk.Err)
		}
	}
	return nil
}

// resolveDocument unmarshals one snapshot document and resolves it on
// the destination, returning a display name either way.
func (e *LibraryEngine) resolveDocument(ctx context.Context, kind models.Kind, doc json.RawMessage) (string, models.NativeRecord, error) {
	switch kind {
	case models.KindSong:
		var song models.Song
		if err := json.Unmarshal(doc, &song); err != nil {
			return "", models.NativeRecord{}, fmt.Errorf("failed to decode song snapshot: %w", err)
		}
		rec, err := e.resolver.ResolveSong(ctx, song, e.dest)
		return fmt.Sprintf("%s - %s", song.Artist(), song.Title), rec, err
	case models.KindAlbum:
		var album models.Album
		if err := json.Unmarshal(doc, &album); err != nil {
			return "", models.NativeRecord{}, fmt.Errorf("failed to decode album snapshot: %w", err)
		}
		rec, err := e.resolver.ResolveAlbum(ctx, album, e.dest)
		return album.Title, rec, err
	case models.KindArtist:
		var artist models.Artist
		if err := json.Unmarshal(doc, &artist); err != nil {
			return "", models.NativeRecord{}, fmt.Errorf("failed to decode artist snapshot: %w", err)
		}
		rec, err := e.resolver.ResolveArtist(ctx, artist, e.dest)
		return artist.Name, rec, err
	default:
		return "", models.NativeRecord{}, fmt.Errorf("%w: kind %s", shared.ErrInvalidArgument, kind)
	}
}

// ExportPlaylists recreates playlists from the latest playlist snapshot.
// An empty names filter exports every snapshotted playlist.
func (e *LibraryEngine) ExportPlaylists(ctx context.Context, progress chan<- ProgressUpdate, names []string) (*PlaylistExportResult, error) {
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}

	result := &PlaylistExportResult{State: StateReading}

	docs, err := e.latestSnapshot(ctx, string(models.KindPlaylist))
	if err != nil {
		result.State = StateFailed
		return result, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[shared.NormalizeName(name)] = true
	}

	result.State = StateResolving
	for _, doc := range docs {
		var pl models.Playlist
		if err := json.Unmarshal(doc, &pl); err != nil {
			result.State = StateFailed
			return result, fmt.Errorf("failed to decode playlist snapshot: %w", err)
		}
		if len(wanted) > 0 && !wanted[shared.NormalizeName(pl.Name)] {
			continue
		}

		report := e.exportPlaylist(ctx, progress, pl)
		result.Reports = append(result.Reports, report)
		if errors.Is(report.Err, shared.ErrNotAuthenticated) {
			result.State = StateFailed
			return result, report.Err
		}
	}

	result.State = StateDone
	return result, nil
}

// exportPlaylist resolves a playlist's items in order, creates the
// destination playlist, and appends the resolved items in batches.
// Unresolved items are dropped; the surviving order is preserved.
func (e *LibraryEngine) exportPlaylist(ctx context.Context, progress chan<- ProgressUpdate, pl models.Playlist) *PlaylistReport {
	report := &PlaylistReport{Name: pl.Name, Read: len(pl.Items)}

	var ids []string
	for i, item := range pl.Items {
		name := fmt.Sprintf("%s - %s", item.Song.Artist(), item.Song.Title)
		e.sendProgress(progress, resolvingUpdate(models.KindPlaylist, i+1, len(pl.Items), name))

		rec, err := e.resolver.ResolveSong(ctx, item.Song, e.dest)
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				report.Err = err
				return report
			}
			report.Unresolved = append(report.Unresolved, name)
			e.sendProgress(progress, unresolvedUpdate(models.KindPlaylist, i+1, len(pl.Items), name))
			continue
		}
		report.Resolved++
		ids = append(ids, rec.NativeID)
	}

	destID, err := e.dest.CreatePlaylist(ctx, pl)
	if err != nil {
		report.Err = err
		e.logger.Error("playlist creation failed", "name", pl.Name, "error", err)
		return report
	}
	report.DestID = destID
	e.sendProgress(progress, createPlaylistUpdate(pl.Name, destID))

	chunks, err := WriteBatches(ctx, services.PlaylistItemBatchLimit, ids, func(ctx context.Context, chunk []string) error {
		e.sendProgress(progress, writingUpdate(models.KindPlaylist, 0, 0, len(chunk)))
		return e.dest.AddPlaylistItems(ctx, destID, chunk)
	})
	if err != nil {
		report.Err = err
		return report
	}

	report.Written = WrittenCount(chunks)
	for _, chunk := range chunks {
		if chunk.Err != nil {
			e.logger.Error("playlist batch failed", "name", pl.Name, "chunk", chunk.Index, "error", chunk.Err)
		}
	}
	return report
}
