// internal/collector/collector.go
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github-org-collector/internal/github"
	"github-org-collector/internal/model"
	"github-org-collector/internal/storage"
)

// userPause is the courtesy delay between user profile fetches.
const userPause = 500 * time.Millisecond

// Source is the upstream boundary the collector pulls raw records from.
// Implemented by *github.Fetcher.
type Source interface {
	ListOrganizationRepositories(ctx context.Context, org string, maxPages int) ([]github.RawRepository, error)
	ListPullRequests(ctx context.Context, owner, repo string, maxPages int) ([]github.RawPullRequest, error)
	ListReviews(ctx context.Context, owner, repo string, number int, maxPages int) ([]github.RawReview, error)
	GetUserProfile(ctx context.Context, login string) (github.RawUserProfile, error)
}

// Options bound a single collection run.
type Options struct {
	Organization           string
	MaxRepositories        int
	MaxPullRequestsPerRepo int
	// MaxReviewPullRequests caps how many pull requests per repository get
	// their reviews fetched. The source system used a hidden constant of 50
	// here; it is configurable so the resulting data gap stays visible.
	MaxReviewPullRequests int
	MaxUsers              int
	IncludeReviews        bool
	IncludeUserProfiles   bool
	// DryRun skips the courtesy pauses, nothing else.
	DryRun    bool
	RepoPause time.Duration
}

// Summary is the structured result of one collection run.
type Summary struct {
	Success      bool      `json:"success"`
	Organization string    `json:"organization"`
	Repositories int       `json:"repositories_count"`
	PullRequests int       `json:"pull_requests_count"`
	Reviews      int       `json:"reviews_count"`
	Users        int       `json:"users_count"`
	FailedRepos  []string  `json:"failed_repositories,omitempty"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Collector sequences the ingestion workflow: repositories, then each
// repository's pull requests, then optionally reviews, then user profiles.
// Strictly sequential, one request in flight at a time; per-repository and
// per-record failures are logged and skipped, never escalated.
type Collector struct {
	source Source
	upsert *upserter
	opts   Options
	logger *slog.Logger

	// Injectable for tests.
	pause func(ctx context.Context, d time.Duration)
}

// New creates a Collector.
func New(source Source, store storage.Store, opts Options, logger *slog.Logger) *Collector {
	return &Collector{
		source: source,
		upsert: &upserter{store: store, logger: logger},
		opts:   opts,
		logger: logger,
		pause:  pauseContext,
	}
}

// Run executes one collection pass and always returns a Summary. The run is
// considered failed only when even the repository listing cannot be
// completed; anything below that granularity is isolated and reported in
// counts and logs.
func (c *Collector) Run(ctx context.Context) Summary {
	summary := Summary{
		Organization: c.opts.Organization,
		StartedAt:    time.Now().UTC(),
	}
	defer func() {
		summary.FinishedAt = time.Now().UTC()
	}()

	c.logger.Info("starting collection run",
		"org", c.opts.Organization,
		"max_repositories", c.opts.MaxRepositories,
		"include_reviews", c.opts.IncludeReviews,
		"dry_run", c.opts.DryRun,
	)

	rawRepos, err := c.source.ListOrganizationRepositories(ctx, c.opts.Organization, 0)
	if err != nil {
		c.logger.Error("failed to list organization repositories", "org", c.opts.Organization, "error", err)
		summary.Error = fmt.Sprintf("list repositories for %s: %v", c.opts.Organization, err)
		return summary
	}

	if c.opts.MaxRepositories > 0 && len(rawRepos) > c.opts.MaxRepositories {
		c.logger.Info("limiting repositories for this run",
			"fetched", len(rawRepos), "limit", c.opts.MaxRepositories)
		rawRepos = rawRepos[:c.opts.MaxRepositories]
	}

	seenLogins := make(map[string]struct{})

	for i, rawRepo := range rawRepos {
		repo, res := c.upsert.upsertRepository(ctx, rawRepo)
		if !res.Persisted() {
			continue
		}
		summary.Repositories++

		if err := c.collectRepository(ctx, repo.Name, &summary, seenLogins); err != nil {
			c.logger.Error("repository collection failed, continuing with next",
				"repo", repo.Name, "error", err)
			summary.FailedRepos = append(summary.FailedRepos, repo.Name)
		}

		if !c.opts.DryRun && i < len(rawRepos)-1 && c.opts.RepoPause > 0 {
			c.pause(ctx, c.opts.RepoPause)
		}
	}

	if c.opts.IncludeUserProfiles {
		c.collectUserProfiles(ctx, seenLogins, &summary)
	}

	summary.Success = true
	c.logger.Info("collection run finished",
		"repositories", summary.Repositories,
		"pull_requests", summary.PullRequests,
		"reviews", summary.Reviews,
		"users", summary.Users,
		"failed_repositories", len(summary.FailedRepos),
	)
	return summary
}

// collectRepository ingests one repository's pull requests and, when enabled,
// their reviews.
func (c *Collector) collectRepository(ctx context.Context, repoName string, summary *Summary, seenLogins map[string]struct{}) error {
	maxPages := github.PagesFor(c.opts.MaxPullRequestsPerRepo)
	rawPulls, err := c.source.ListPullRequests(ctx, c.opts.Organization, repoName, maxPages)
	if err != nil {
		return fmt.Errorf("list pull requests: %w", err)
	}
	if c.opts.MaxPullRequestsPerRepo > 0 && len(rawPulls) > c.opts.MaxPullRequestsPerRepo {
		rawPulls = rawPulls[:c.opts.MaxPullRequestsPerRepo]
	}
	c.logger.Info("processing pull requests", "repo", repoName, "count", len(rawPulls))

	collected := make([]model.PullRequest, 0, len(rawPulls))
	for _, rawPR := range rawPulls {
		pr, res := c.upsert.upsertPullRequest(ctx, rawPR)
		if !res.Persisted() {
			continue
		}
		summary.PullRequests++
		collected = append(collected, pr)
		if rawPR.User != nil && rawPR.User.Login != nil {
			seenLogins[*rawPR.User.Login] = struct{}{}
		}
	}

	if !c.opts.IncludeReviews {
		return nil
	}

	reviewTargets := collected
	if c.opts.MaxReviewPullRequests > 0 && len(reviewTargets) > c.opts.MaxReviewPullRequests {
		c.logger.Warn("truncating review collection, reviews for remaining pull requests are not fetched",
			"repo", repoName,
			"pull_requests", len(reviewTargets),
			"limit", c.opts.MaxReviewPullRequests,
		)
		reviewTargets = reviewTargets[:c.opts.MaxReviewPullRequests]
	}

	for _, pr := range reviewTargets {
		rawReviews, err := c.source.ListReviews(ctx, c.opts.Organization, repoName, pr.Number, 0)
		if err != nil {
			c.logger.Error("failed to fetch reviews, continuing with next pull request",
				"repo", repoName, "number", pr.Number, "error", err)
			continue
		}
		for _, rawReview := range rawReviews {
			if _, res := c.upsert.upsertReview(ctx, rawReview, pr); !res.Persisted() {
				continue
			}
			summary.Reviews++
			if rawReview.User != nil && rawReview.User.Login != nil {
				seenLogins[*rawReview.User.Login] = struct{}{}
			}
		}
	}

	return nil
}

// collectUserProfiles enriches the users seen during this run with their full
// profiles, bounded by MaxUsers.
func (c *Collector) collectUserProfiles(ctx context.Context, seenLogins map[string]struct{}, summary *Summary) {
	logins := make([]string, 0, len(seenLogins))
	for login := range seenLogins {
		logins = append(logins, login)
	}
	if c.opts.MaxUsers > 0 && len(logins) > c.opts.MaxUsers {
		c.logger.Info("limiting user profile fetches", "seen", len(logins), "limit", c.opts.MaxUsers)
		logins = logins[:c.opts.MaxUsers]
	}
	c.logger.Info("fetching user profiles", "count", len(logins))

	for i, login := range logins {
		profile, err := c.source.GetUserProfile(ctx, login)
		if err != nil {
			c.logger.Error("failed to fetch user profile, continuing with next", "login", login, "error", err)
			continue
		}
		if _, res := c.upsert.enrichUserProfile(ctx, profile); res.Persisted() {
			summary.Users++
		}
		if !c.opts.DryRun && i < len(logins)-1 {
			c.pause(ctx, userPause)
		}
	}
}

func pauseContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
