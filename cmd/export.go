package main

import (
	"context"
	"fmt"

	"github.com/nocturne-labs/tunesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export resolves the latest snapshots on the destination and writes
// songs, albums, and artists in batches.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	dest, err := r.resolveService(cmd.String("to"))
	if err != nil {
		return err
	}
	kinds, err := kindsFromFlag(cmd.String("kinds"))
	if err != nil {
		return err
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := tasks.NewLibraryEngine(nil, dest, st, r.logger)

	r.logger.Info("starting export", "to", dest.Name())
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.drainProgress(progress)
	}()

	result, err := engine.ExportLibrary(ctx, progress, kinds)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writeHeader(fmt.Sprintf("Export to %s complete", dest.Name()))
	r.writeKindReports(result.Reports)
	return nil
}

// ExportPlaylists recreates snapshotted playlists on the destination.
func (r *Runner) ExportPlaylists(ctx context.Context, cmd *cli.Command) error {
	dest, err := r.resolveService(cmd.String("to"))
	if err != nil {
		return err
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := tasks.NewLibraryEngine(nil, dest, st, r.logger)

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.drainProgress(progress)
	}()

	result, err := engine.ExportPlaylists(ctx, progress, cmd.StringSlice("name"))
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writeHeader(fmt.Sprintf("Playlist export to %s complete", dest.Name()))
	for _, report := range result.Reports {
		if report.Err != nil {
			r.writePlain("%s %s: %v\n", errStyle.Render("✗"), report.Name, report.Err)
			continue
		}

		line := fmt.Sprintf("%s → %s: %d/%d items written", report.Name, report.DestID, report.Written, report.Read)
		if len(report.Unresolved) > 0 {
			r.writePlain("%s %s\n", warnStyle.Render("!"), line)
			for _, name := range report.Unresolved {
				r.writePlain("%s\n", unresolvedStyle.Render("unresolved: "+name))
			}
		} else {
			r.writePlain("%s %s\n", okStyle.Render("✓"), line)
		}
	}
	return nil
}
