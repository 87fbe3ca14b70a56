// internal/github/pulls.go
package github

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// RawAccount is the nested user reference carried by pull request and review
// records. Enough to resolve or shallow-create a local user row.
type RawAccount struct {
	ID    *int64  `json:"id"`
	Login *string `json:"login"`
}

// RawRepoRef is the nested base-repository reference on a pull request.
type RawRepoRef struct {
	ID *int64 `json:"id"`
}

// RawBase is the base branch object; only the repository reference matters
// for resolving ownership.
type RawBase struct {
	Repo *RawRepoRef `json:"repo"`
}

// RawPullRequest is one record from the repository pulls listing. Counter
// fields default to zero when the listing omits them.
type RawPullRequest struct {
	ID           *int64      `json:"id"`
	Number       *int        `json:"number"`
	Title        *string     `json:"title"`
	User         *RawAccount `json:"user"`
	Base         *RawBase    `json:"base"`
	CreatedAt    *time.Time  `json:"created_at"`
	ClosedAt     *time.Time  `json:"closed_at"`
	MergedAt     *time.Time  `json:"merged_at"`
	Additions    int         `json:"additions"`
	Deletions    int         `json:"deletions"`
	ChangedFiles int         `json:"changed_files"`
	Commits      int         `json:"commits"`
}

// Validate checks the minimum field set needed to persist the record: id,
// number, title, author, and the base-repository reference.
func (p RawPullRequest) Validate() error {
	var missing []string
	if p.ID == nil {
		missing = append(missing, "id")
	}
	if p.Number == nil {
		missing = append(missing, "number")
	}
	if p.Title == nil {
		missing = append(missing, "title")
	}
	if p.User == nil || p.User.ID == nil {
		missing = append(missing, "user")
	}
	if p.Base == nil || p.Base.Repo == nil || p.Base.Repo.ID == nil {
		missing = append(missing, "base")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Entity: "pull_request", Fields: missing}
	}
	return nil
}

// ListPullRequests fetches a repository's pull requests (all states) across
// pages, most recently updated first.
func (f *Fetcher) ListPullRequests(ctx context.Context, owner, repo string, maxPages int) ([]RawPullRequest, error) {
	f.logger.Info("fetching pull requests", "owner", owner, "repo", repo)
	return CollectPages(ctx, f.logger, maxPages, func(ctx context.Context, page int) ([]RawPullRequest, error) {
		return f.pullRequestsPage(ctx, owner, repo, page)
	})
}

func (f *Fetcher) pullRequestsPage(ctx context.Context, owner, repo string, page int) ([]RawPullRequest, error) {
	f.logger.Debug("fetching pull requests page", "owner", owner, "repo", repo, "page", page)
	q := pageQuery(page, url.Values{
		"state":     {"all"},
		"sort":      {"updated"},
		"direction": {"desc"},
	})

	var pulls []RawPullRequest
	if err := f.getJSON(ctx, fmt.Sprintf("repos/%s/%s/pulls", owner, repo), q, &pulls); err != nil {
		return nil, err
	}
	return pulls, nil
}
