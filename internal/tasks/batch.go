package tasks

import (
	"context"
	"fmt"

	"github.com/nocturne-labs/tunesync/internal/shared"
)

// ChunkResult records the outcome of one batch write call.
type ChunkResult struct {
	Index int      // Chunk position, starting at 0
	IDs   []string // Native ids sent in this chunk
	Err   error    // nil on success
}

// WriteBatches splits ids into contiguous chunks of at most limit and
// applies op to each chunk sequentially, in order. A failed chunk is
// recorded and the remaining chunks are still attempted; there is no
// retry. The returned slice has ceil(len(ids)/limit) entries.
func WriteBatches(ctx context.Context, limit int, ids []string, op func(ctx context.Context, chunk []string) error) ([]ChunkResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: batch limit must be positive, got %d", shared.ErrInvalidArgument, limit)
	}

	var results []ChunkResult
	for start := 0; start < len(ids); start += limit {
		end := min(start+limit, len(ids))
		chunk := ids[start:end]

		result := ChunkResult{Index: len(results), IDs: chunk}
		if err := ctx.Err(); err != nil {
			result.Err = err
		} else {
			result.Err = op(ctx, chunk)
		}
		results = append(results, result)
	}
	return results, nil
}

// WrittenCount sums the ids of successful chunks.
func WrittenCount(results []ChunkResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n += len(r.IDs)
		}
	}
	return n
}

// FailedCount sums the ids of failed chunks.
func FailedCount(results []ChunkResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n += len(r.IDs)
		}
	}
	return n
}
