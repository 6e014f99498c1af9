package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nocturne-labs/tunesync/internal/shared"
)

// Snapshots is the append-only record of what each ingest run observed.
// A run writes one JSON document per entity under its run id; earlier
// runs are never modified.
type Snapshots struct {
	db *sql.DB
}

// Write appends one batch of documents for a run. Each document is
// marshaled as JSON into the named collection ("songs", "albums", ...).
// stableKeys pairs with docs by index; entries without a stable key pass
// an empty string.
func (s *Snapshots) Write(ctx context.Context, runID, collection string, stableKeys []string, docs []any) error {
	if runID == "" || collection == "" {
		return fmt.Errorf("%w: snapshot run id and collection are required", shared.ErrInvalidInput)
	}
	if len(stableKeys) != len(docs) {
		return fmt.Errorf("%w: %d stable keys for %d documents", shared.ErrInvalidInput, len(stableKeys), len(docs))
	}
	if len(docs) == 0 {
		return nil
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshots (id, run_id, collection, stable_key, document, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot statement: %w", err)
		}
		defer stmt.Close()

		now := nowUTC()
		for i, doc := range docs {
			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to marshal snapshot document: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, shared.GenerateID(), runID, collection,
				stableKeys[i], string(data), now); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
		}
		return nil
	})
}

// ReadRun returns the raw documents one run wrote to a collection, in
// insertion order.
func (s *Snapshots) ReadRun(ctx context.Context, runID, collection string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document FROM snapshots
		WHERE run_id = ? AND collection = ?
		ORDER BY rowid`, runID, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		docs = append(docs, json.RawMessage(doc))
	}
	return docs, rows.Err()
}

// RunSummary describes one ingest run found in the snapshot log.
type RunSummary struct {
	RunID     string
	Documents int
}

// Runs lists run ids present in a collection, newest first, with their
// document counts.
func (s *Snapshots) Runs(ctx context.Context, collection string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, COUNT(*) FROM snapshots
		WHERE collection = ?
		GROUP BY run_id
		ORDER BY MAX(rowid) DESC`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.RunID, &run.Documents); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
