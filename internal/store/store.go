package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nocturne-labs/tunesync/internal/shared"
)

// Store wraps the sqlite handle shared by the cache and snapshot layers.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies migrations.
func New(path string) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Cache returns the native-record cache backed by this store.
func (s *Store) Cache() *Cache {
	return &Cache{db: s.db}
}

// Snapshots returns the snapshot writer/reader backed by this store.
func (s *Store) Snapshots() *Snapshots {
	return &Snapshots{db: s.db}
}

// withTx runs fn inside a transaction, committing on nil and rolling
// back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
