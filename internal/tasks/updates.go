package tasks

import (
	"fmt"

	"github.com/nocturne-labs/tunesync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Kind    models.Kind
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Reading Phase = iota
	Resolving
	Writing
	Snapshotting
	CreatingPlaylist
)

func (p Phase) String() string {
	switch p {
	case Reading:
		return "reading"
	case Resolving:
		return "resolving"
	case Writing:
		return "writing"
	case Snapshotting:
		return "snapshotting"
	case CreatingPlaylist:
		return "creating_playlist"
	default:
		return ""
	}
}

func readingUpdate(kind models.Kind, service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reading,
		Kind:    kind,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading %s from %s...", kind, service),
	}
}

func readUpdate(kind models.Kind, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reading,
		Kind:    kind,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d %s", count, kind),
	}
}

func snapshotUpdate(kind models.Kind, runID string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Snapshotting,
		Kind:    kind,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Snapshotted %d %s (run %s)", count, kind, runID),
	}
}

func resolvingUpdate(kind models.Kind, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolving,
		Kind:    kind,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving: %s", step, total, name),
	}
}

func unresolvedUpdate(kind models.Kind, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolving,
		Kind:    kind,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ Unresolved: %s", step, total, name),
	}
}

func writingUpdate(kind models.Kind, step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Writing,
		Kind:    kind,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Writing batch of %d %s...", step, total, size, kind),
	}
}

func createPlaylistUpdate(name, destID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatingPlaylist,
		Kind:    models.KindPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", name, destID),
	}
}
