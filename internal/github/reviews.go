// internal/github/reviews.go
package github

import (
	"context"
	"fmt"
	"time"
)

// RawReview is one record from the pull request reviews listing.
type RawReview struct {
	ID          *int64      `json:"id"`
	User        *RawAccount `json:"user"`
	State       *string     `json:"state"`
	SubmittedAt *time.Time  `json:"submitted_at"`
}

// Validate checks the minimum field set needed to persist the record.
func (r RawReview) Validate() error {
	var missing []string
	if r.ID == nil {
		missing = append(missing, "id")
	}
	if r.User == nil || r.User.ID == nil {
		missing = append(missing, "user")
	}
	if r.State == nil {
		missing = append(missing, "state")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Entity: "review", Fields: missing}
	}
	return nil
}

// ListReviews fetches the reviews of one pull request across pages.
func (f *Fetcher) ListReviews(ctx context.Context, owner, repo string, number int, maxPages int) ([]RawReview, error) {
	f.logger.Debug("fetching reviews", "owner", owner, "repo", repo, "number", number)
	return CollectPages(ctx, f.logger, maxPages, func(ctx context.Context, page int) ([]RawReview, error) {
		return f.reviewsPage(ctx, owner, repo, number, page)
	})
}

func (f *Fetcher) reviewsPage(ctx context.Context, owner, repo string, number, page int) ([]RawReview, error) {
	q := pageQuery(page, nil)

	var reviews []RawReview
	if err := f.getJSON(ctx, fmt.Sprintf("repos/%s/%s/pulls/%d/reviews", owner, repo, number), q, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
