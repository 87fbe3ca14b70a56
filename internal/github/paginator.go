// internal/github/paginator.go
package github

import (
	"context"
	"log/slog"
)

const (
	// perPage is the upstream maximum page size.
	perPage = 100

	// pageSafetyLimit guards against a misbehaving upstream that never
	// returns an empty page.
	pageSafetyLimit = 1000
)

// PageFunc fetches a single 1-based page and returns its raw items.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// CollectPages drives fetch across successive pages starting at 1 until a
// page comes back empty, maxPages is reached (0 means unbounded), or the
// absolute safety ceiling trips. Items are returned in first-page-first
// order; duplicates across pages are not filtered, the idempotent upsert
// downstream absorbs them.
func CollectPages[T any](ctx context.Context, logger *slog.Logger, maxPages int, fetch PageFunc[T]) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if maxPages > 0 && page > maxPages {
			logger.Debug("pagination stopped at configured page limit", "max_pages", maxPages)
			break
		}
		if page > pageSafetyLimit {
			logger.Error("pagination safety ceiling reached, stopping", "limit", pageSafetyLimit)
			break
		}

		items, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
	}
	return all, nil
}

// PagesFor converts a maximum item count into the page count needed to cover
// it at the upstream page size. Zero or negative means unbounded.
func PagesFor(maxItems int) int {
	if maxItems <= 0 {
		return 0
	}
	return (maxItems + perPage - 1) / perPage
}
