package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/shared"
)

// Cache stores service-native records keyed by (service, native id).
// Writes are idempotent upserts, so re-caching a record the resolver has
// already seen never duplicates it or errors.
type Cache struct {
	db *sql.DB
}

// Put upserts one native record.
func (c *Cache) Put(ctx context.Context, rec models.NativeRecord) error {
	if !rec.Valid() {
		return fmt.Errorf("%w: native record missing service, id, or kind", shared.ErrInvalidInput)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO native_records (service, native_id, kind, stable_key, name, artist_name, document, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (service, native_id) DO UPDATE SET
			kind = excluded.kind,
			stable_key = excluded.stable_key,
			name = excluded.name,
			artist_name = excluded.artist_name,
			document = excluded.document,
			cached_at = excluded.cached_at`,
		rec.Service, rec.NativeID, string(rec.Kind), rec.StableKey,
		rec.Name, rec.ArtistName, string(rec.Document), nowUTC())
	if err != nil {
		return fmt.Errorf("failed to cache record %s/%s: %w", rec.Service, rec.NativeID, err)
	}
	return nil
}

// PutAll upserts a batch of records in one transaction.
func (c *Cache) PutAll(ctx context.Context, recs []models.NativeRecord) error {
	if len(recs) == 0 {
		return nil
	}

	return withTx(ctx, c.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO native_records (service, native_id, kind, stable_key, name, artist_name, document, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (service, native_id) DO UPDATE SET
				kind = excluded.kind,
				stable_key = excluded.stable_key,
				name = excluded.name,
				artist_name = excluded.artist_name,
				document = excluded.document,
				cached_at = excluded.cached_at`)
		if err != nil {
			return fmt.Errorf("failed to prepare cache statement: %w", err)
		}
		defer stmt.Close()

		now := nowUTC()
		for _, rec := range recs {
			if !rec.Valid() {
				return fmt.Errorf("%w: native record missing service, id, or kind", shared.ErrInvalidInput)
			}
			if _, err := stmt.ExecContext(ctx, rec.Service, rec.NativeID, string(rec.Kind),
				rec.StableKey, rec.Name, rec.ArtistName, string(rec.Document), now); err != nil {
				return fmt.Errorf("failed to cache record %s/%s: %w", rec.Service, rec.NativeID, err)
			}
		}
		return nil
	})
}

func scanRecord(row interface{ Scan(...any) error }) (models.NativeRecord, error) {
	var (
		rec      models.NativeRecord
		kind     string
		document string
	)
	err := row.Scan(&rec.Service, &rec.NativeID, &kind, &rec.StableKey, &rec.Name, &rec.ArtistName, &document)
	if err != nil {
		return models.NativeRecord{}, err
	}
	rec.Kind = models.Kind(kind)
	rec.Document = []byte(document)
	return rec, nil
}

const recordColumns = "service, native_id, kind, stable_key, name, artist_name, document"

// GetByNativeID returns the cached record for a service-native id, or
// [shared.ErrCacheMiss] when absent.
func (c *Cache) GetByNativeID(ctx context.Context, service, nativeID string) (models.NativeRecord, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM native_records WHERE service = ? AND native_id = ?",
		service, nativeID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NativeRecord{}, fmt.Errorf("%w: %s/%s", shared.ErrCacheMiss, service, nativeID)
	}
	if err != nil {
		return models.NativeRecord{}, fmt.Errorf("failed to read cache: %w", err)
	}
	return rec, nil
}

// GetByStableKey returns the cached record of one kind holding the given
// stable key (ISRC/UPC) on a service, or [shared.ErrCacheMiss].
func (c *Cache) GetByStableKey(ctx context.Context, service string, kind models.Kind, stableKey string) (models.NativeRecord, error) {
	if stableKey == "" {
		return models.NativeRecord{}, fmt.Errorf("%w: empty stable key", shared.ErrInvalidInput)
	}

	row := c.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM native_records WHERE service = ? AND kind = ? AND stable_key = ? LIMIT 1",
		service, string(kind), stableKey)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NativeRecord{}, fmt.Errorf("%w: %s %s key %s", shared.ErrCacheMiss, service, kind, stableKey)
	}
	if err != nil {
		return models.NativeRecord{}, fmt.Errorf("failed to read cache: %w", err)
	}
	return rec, nil
}

// Count returns the number of cached records for a service, all kinds.
func (c *Cache) Count(ctx context.Context, service string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM native_records WHERE service = ?", service).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache: %w", err)
	}
	return n, nil
}

// Clear removes every cached record for a service. Pass an empty service
// to clear the whole cache.
func (c *Cache) Clear(ctx context.Context, service string) error {
	var err error
	if service == "" {
		_, err = c.db.ExecContext(ctx, "DELETE FROM native_records")
	} else {
		_, err = c.db.ExecContext(ctx, "DELETE FROM native_records WHERE service = ?", service)
	}
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
