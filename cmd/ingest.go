package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Ingest reads a library into cache and snapshots, either by walking a
// service's API or from an already-canonical JSON file.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.drainProgress(progress)
	}()

	var result *tasks.IngestResult
	if path := cmd.String("file"); path != "" {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			close(progress)
			<-done
			return fmt.Errorf("failed to read library file: %w", readErr)
		}
		var lib models.Library
		if err := json.Unmarshal(data, &lib); err != nil {
			close(progress)
			<-done
			return fmt.Errorf("failed to decode library file: %w", err)
		}

		engine := tasks.NewLibraryEngine(nil, nil, st, r.logger)
		r.logger.Info("starting ingest", "file", path)
		result, err = engine.IngestCanonical(ctx, progress, lib)
	} else {
		source, svcErr := r.resolveService(cmd.String("from"))
		if svcErr != nil {
			close(progress)
			<-done
			return svcErr
		}
		kinds, kindErr := kindsFromFlag(cmd.String("kinds"))
		if kindErr != nil {
			close(progress)
			<-done
			return kindErr
		}

		engine := tasks.NewLibraryEngine(source, nil, st, r.logger)
		r.logger.Info("starting ingest", "from", source.Name())
		result, err = engine.IngestLibrary(ctx, progress, kinds)
	}
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writeHeader("Ingest complete (run " + result.RunID + ")")
	r.writeKindReports(result.Reports)
	return nil
}
