package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/nocturne-labs/tunesync/internal/models"
	"github.com/nocturne-labs/tunesync/internal/services"
	"github.com/nocturne-labs/tunesync/internal/shared"
	"github.com/nocturne-labs/tunesync/internal/store"
	"github.com/nocturne-labs/tunesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	okStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	unresolvedStyle = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
)

// Runner holds all dependencies for CLI commands and provides methods for
// each command action.
type Runner struct {
	config     *shared.Config
	applemusic services.Catalog
	spotify    services.Catalog
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	AppleMusic services.Catalog
	Spotify    services.Catalog
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided dependencies.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		applemusic: opts.AppleMusic,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, ingestCommand, exportCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// resolveService maps a service name flag to a configured catalog.
func (r *Runner) resolveService(name string) (services.Catalog, error) {
	switch name {
	case services.AppleMusicName, "apple":
		if r.applemusic == nil {
			return nil, fmt.Errorf("%w: apple music credentials not configured", shared.ErrServiceUnavailable)
		}
		return r.applemusic, nil
	case services.SpotifyName:
		if r.spotify == nil {
			return nil, fmt.Errorf("%w: spotify credentials not configured", shared.ErrServiceUnavailable)
		}
		return r.spotify, nil
	default:
		return nil, fmt.Errorf("%w: unknown service %q", shared.ErrInvalidArgument, name)
	}
}

// openStore opens the document store at the configured path.
func (r *Runner) openStore() (*store.Store, error) {
	return store.New(r.config.Database.Path)
}

// drainProgress prints progress updates until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		switch update.Phase {
		case tasks.Reading, tasks.Snapshotting:
			r.writePlain("%s\n", update.Message)
		case tasks.Resolving:
			r.writePlain("  %s\n", update.Message)
		case tasks.CreatingPlaylist:
			r.writePlain("\n%s\n", update.Message)
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintf(r.output, "%s\n", output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeHeader(title string) {
	r.writePlain("\n%s\n", headerStyle.Render(title))
}

// writeKindReports renders per-kind outcome lines with their unresolved
// entities.
func (r *Runner) writeKindReports(reports []*tasks.KindReport) {
	for _, report := range reports {
		if report.Err != nil {
			r.writePlain("%s %s: %v\n", errStyle.Render("✗"), report.Kind, report.Err)
			continue
		}

		line := fmt.Sprintf("%s: read %d, resolved %d, written %d, skipped %d",
			report.Kind, report.Read, report.Resolved, report.Written, report.Skipped)
		if report.Skipped > 0 {
			r.writePlain("%s %s\n", warnStyle.Render("!"), line)
		} else {
			r.writePlain("%s %s\n", okStyle.Render("✓"), line)
		}

		for _, name := range report.Unresolved {
			r.writePlain("%s\n", unresolvedStyle.Render("unresolved: "+name))
		}
	}
}

// kindsFromFlag parses a comma-separated kinds flag; empty means all.
func kindsFromFlag(value string) ([]models.Kind, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	known := map[string]models.Kind{}
	for _, kind := range models.Kinds() {
		known[string(kind)] = kind
	}

	var kinds []models.Kind
	for _, part := range strings.Split(value, ",") {
		kind, ok := known[strings.TrimSpace(part)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidArgument, part)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
