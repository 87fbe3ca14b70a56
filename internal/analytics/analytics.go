// internal/analytics/analytics.go

// Package analytics aggregates already-ingested records into a report. It is
// a pure read side: nothing here talks to the upstream API or mutates rows.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/montanaflynn/stats"
)

// Service runs aggregate queries against the store.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a Service reading from pool.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

// Report is the aggregated view over all ingested data.
type Report struct {
	Overview     Overview          `json:"overview"`
	Repositories RepositoryStats   `json:"repositories"`
	PullRequests PullRequestStats  `json:"pull_requests"`
	Reviews      ReviewStats       `json:"reviews"`
	TopAuthors   []ContributorStat `json:"top_authors"`
	TopReviewers []ContributorStat `json:"top_reviewers"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type Overview struct {
	Repositories int64 `json:"total_repositories"`
	PullRequests int64 `json:"total_pull_requests"`
	Reviews      int64 `json:"total_reviews"`
	Users        int64 `json:"total_users"`
}

type RepositoryStats struct {
	Public   int64 `json:"public_count"`
	Private  int64 `json:"private_count"`
	Active   int64 `json:"active_count"`
	Archived int64 `json:"archived_count"`
}

type PullRequestStats struct {
	Open      int64         `json:"open_count"`
	Closed    int64         `json:"closed_count"`
	Merged    int64         `json:"merged_count"`
	MergeRate float64       `json:"merge_rate"`
	Size      SizeStats     `json:"size"`
	Lifetime  LifetimeStats `json:"lifetime"`
}

// LifetimeStats summarizes how long closed pull requests stayed open, in
// hours. Only rows with both an opened and a closed timestamp count.
type LifetimeStats struct {
	MeanHours   float64 `json:"mean_hours"`
	MedianHours float64 `json:"median_hours"`
}

// SizeStats summarizes the changed-line counts of pull requests.
type SizeStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

type ReviewStats struct {
	Approved         int64   `json:"approved_count"`
	ChangesRequested int64   `json:"changes_requested_count"`
	Commented        int64   `json:"commented_count"`
	Dismissed        int64   `json:"dismissed_count"`
	ApprovalRate     float64 `json:"approval_rate"`
}

type ContributorStat struct {
	Login string `json:"login"`
	Count int64  `json:"count"`
}

const topContributorLimit = 10

// GenerateReport builds the full report.
func (s *Service) GenerateReport(ctx context.Context) (Report, error) {
	s.logger.Info("generating analytics report")

	report := Report{GeneratedAt: time.Now().UTC()}

	if err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM repositories),
			(SELECT count(*) FROM pull_requests),
			(SELECT count(*) FROM reviews),
			(SELECT count(*) FROM users)
	`).Scan(&report.Overview.Repositories, &report.Overview.PullRequests,
		&report.Overview.Reviews, &report.Overview.Users); err != nil {
		return Report{}, fmt.Errorf("overview counts: %w", err)
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE NOT is_private),
			count(*) FILTER (WHERE is_private),
			count(*) FILTER (WHERE NOT is_archived),
			count(*) FILTER (WHERE is_archived)
		FROM repositories
	`).Scan(&report.Repositories.Public, &report.Repositories.Private,
		&report.Repositories.Active, &report.Repositories.Archived); err != nil {
		return Report{}, fmt.Errorf("repository stats: %w", err)
	}

	var merged int64
	if err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE closed_at IS NULL),
			count(*) FILTER (WHERE closed_at IS NOT NULL),
			count(*) FILTER (WHERE merged_at IS NOT NULL)
		FROM pull_requests
	`).Scan(&report.PullRequests.Open, &report.PullRequests.Closed, &merged); err != nil {
		return Report{}, fmt.Errorf("pull request stats: %w", err)
	}
	report.PullRequests.Merged = merged
	report.PullRequests.MergeRate = ratio(merged, report.Overview.PullRequests)

	sizes, err := s.pullRequestSizes(ctx)
	if err != nil {
		return Report{}, err
	}
	report.PullRequests.Size = summarizeSizes(sizes)

	lifetimes, err := s.pullRequestLifetimes(ctx)
	if err != nil {
		return Report{}, err
	}
	report.PullRequests.Lifetime = summarizeLifetimes(lifetimes)

	if err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE state = 'approved'),
			count(*) FILTER (WHERE state = 'changes_requested'),
			count(*) FILTER (WHERE state = 'commented'),
			count(*) FILTER (WHERE state = 'dismissed')
		FROM reviews
	`).Scan(&report.Reviews.Approved, &report.Reviews.ChangesRequested,
		&report.Reviews.Commented, &report.Reviews.Dismissed); err != nil {
		return Report{}, fmt.Errorf("review stats: %w", err)
	}
	report.Reviews.ApprovalRate = ratio(report.Reviews.Approved, report.Overview.Reviews)

	report.TopAuthors, err = s.topContributors(ctx, `
		SELECT u.login, count(*) AS n
		FROM pull_requests p
		JOIN users u ON u.id = p.author_id
		GROUP BY u.login
		ORDER BY n DESC, u.login
		LIMIT $1
	`)
	if err != nil {
		return Report{}, fmt.Errorf("top authors: %w", err)
	}

	report.TopReviewers, err = s.topContributors(ctx, `
		SELECT u.login, count(*) AS n
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		GROUP BY u.login
		ORDER BY n DESC, u.login
		LIMIT $1
	`)
	if err != nil {
		return Report{}, fmt.Errorf("top reviewers: %w", err)
	}

	return report, nil
}

func (s *Service) pullRequestSizes(ctx context.Context) ([]float64, error) {
	rows, err := s.pool.Query(ctx, `SELECT additions + deletions FROM pull_requests`)
	if err != nil {
		return nil, fmt.Errorf("select pull request sizes: %w", err)
	}
	defer rows.Close()

	var sizes []float64
	for rows.Next() {
		var size float64
		if err := rows.Scan(&size); err != nil {
			return nil, fmt.Errorf("scan pull request size: %w", err)
		}
		sizes = append(sizes, size)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull request sizes: %w", err)
	}
	return sizes, nil
}

func (s *Service) pullRequestLifetimes(ctx context.Context) ([]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(EPOCH FROM (closed_at - opened_at)) / 3600.0
		FROM pull_requests
		WHERE closed_at IS NOT NULL AND opened_at IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("select pull request lifetimes: %w", err)
	}
	defer rows.Close()

	var hours []float64
	for rows.Next() {
		var h float64
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan pull request lifetime: %w", err)
		}
		hours = append(hours, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull request lifetimes: %w", err)
	}
	return hours, nil
}

func (s *Service) topContributors(ctx context.Context, query string) ([]ContributorStat, error) {
	rows, err := s.pool.Query(ctx, query, topContributorLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ContributorStat
	for rows.Next() {
		var c ContributorStat
		if err := rows.Scan(&c.Login, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// summarizeSizes computes the size distribution. The stats library errors on
// empty input, in which case all figures stay zero.
func summarizeSizes(sizes []float64) SizeStats {
	if len(sizes) == 0 {
		return SizeStats{}
	}
	mean, _ := stats.Mean(sizes)
	median, _ := stats.Median(sizes)
	p95, _ := stats.Percentile(sizes, 95)
	return SizeStats{Mean: mean, Median: median, P95: p95}
}

func summarizeLifetimes(hours []float64) LifetimeStats {
	if len(hours) == 0 {
		return LifetimeStats{}
	}
	mean, _ := stats.Mean(hours)
	median, _ := stats.Median(hours)
	return LifetimeStats{MeanHours: mean, MedianHours: median}
}

func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
