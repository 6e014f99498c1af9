package services

import (
	"context"
	"fmt"

	"github.com/nocturne-labs/tunesync/internal/shared"
)

// Page is one page of a paginated list endpoint.
//
// Next is the opaque cursor (usually a relative or absolute URL) for the
// following page; empty means the walk is done. Total carries the
// server-reported total item count when the service provides one.
type Page[T any] struct {
	Items []T
	Next  string
	Total *int
}

// PageFunc fetches one page for the given cursor. An empty cursor requests
// the first page.
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// FetchAll walks a paginated endpoint to completion and returns every item
// in page order.
//
// Any page fetch error aborts the whole walk; cursors are not guaranteed
// stable across retries, so there is no partial resumption. If the service
// reported a total, the collected count must equal it; a mismatch means a
// page was skipped or duplicated mid-walk and is surfaced as
// [shared.ErrPaginationMismatch].
func FetchAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var (
		items  []T
		total  *int
		cursor string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		if page.Total != nil {
			total = page.Total
		}

		if page.Next == "" {
			break
		}
		cursor = page.Next
	}

	if total != nil && *total != len(items) {
		return nil, fmt.Errorf("%w: server reported %d items, collected %d",
			shared.ErrPaginationMismatch, *total, len(items))
	}

	return items, nil
}
