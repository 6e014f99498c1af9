package main

import (
	"context"

	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/services"
	"github.com/nocturne-labs/tunesync/internal/store"
	"github.com/urfave/cli/v3"
)

type cacheStats struct {
	Records   map[string]int                `json:"records"`
	Snapshots map[string][]store.RunSummary `json:"snapshots,omitempty"`
}

// CacheStats prints cached record counts per service and the snapshot
// runs recorded per collection.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats := cacheStats{Records: map[string]int{}, Snapshots: map[string][]store.RunSummary{}}
	for _, service := range []string{services.AppleMusicName, services.SpotifyName} {
		n, err := st.Cache().Count(ctx, service)
		if err != nil {
			return err
		}
		stats.Records[service] = n
	}
	for _, kind := range models.Kinds() {
		runs, err := st.Snapshots().Runs(ctx, string(kind))
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			stats.Snapshots[string(kind)] = runs
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writeHeader("Cache")
	for service, n := range stats.Records {
		r.writePlain("%s: %d cached records\n", service, n)
	}
	for collection, runs := range stats.Snapshots {
		r.writePlain("%s: %d snapshot runs (latest %s, %d documents)\n",
			collection, len(runs), runs[0].RunID, runs[0].Documents)
	}
	return nil
}

// CacheClear removes cached native records, optionally for one service.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	service := cmd.String("service")
	if err := st.Cache().Clear(ctx, service); err != nil {
		return err
	}

	if service == "" {
		r.logger.Info("cache cleared")
	} else {
		r.logger.Info("cache cleared", "service", service)
	}
	return nil
}
