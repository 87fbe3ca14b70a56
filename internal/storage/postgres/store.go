// internal/storage/postgres/store.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-org-collector/internal/model"
	"github-org-collector/internal/storage"
)

// Store is the Postgres implementation of storage.Store. All writes validate
// the entity first so constraint violations surface as *model.ValidationError
// instead of raw driver errors.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps pool in a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const repositoryColumns = `id, external_id, name, url, is_private, is_archived, created_at, updated_at`

func scanRepository(row pgx.Row) (model.Repository, error) {
	var r model.Repository
	err := row.Scan(&r.ID, &r.ExternalID, &r.Name, &r.URL, &r.IsPrivate, &r.IsArchived, &r.DBCreatedAt, &r.DBUpdatedAt)
	return r, err
}

func (s *Store) GetRepositoryByExternalID(ctx context.Context, externalID string) (model.Repository, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE external_id = $1`, externalID)
	repo, err := scanRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Repository{}, fmt.Errorf("select repository: %w", err)
	}
	return repo, nil
}

func (s *Store) CreateRepository(ctx context.Context, repo model.Repository) (model.Repository, error) {
	if err := repo.Validate(); err != nil {
		return model.Repository{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO repositories (external_id, name, url, is_private, is_archived)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+repositoryColumns,
		repo.ExternalID, repo.Name, repo.URL, repo.IsPrivate, repo.IsArchived)
	created, err := scanRepository(row)
	if err != nil {
		return model.Repository{}, wrapWriteError("repository", err)
	}
	return created, nil
}

func (s *Store) UpdateRepository(ctx context.Context, repo model.Repository) (model.Repository, error) {
	if err := repo.Validate(); err != nil {
		return model.Repository{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE repositories
		SET name = $2, url = $3, is_private = $4, is_archived = $5, updated_at = NOW()
		WHERE external_id = $1
		RETURNING `+repositoryColumns,
		repo.ExternalID, repo.Name, repo.URL, repo.IsPrivate, repo.IsArchived)
	updated, err := scanRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Repository{}, wrapWriteError("repository", err)
	}
	return updated, nil
}

func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+repositoryColumns+` FROM repositories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return repos, nil
}

const userColumns = `id, external_id, login, name, email, bio, company, location, blog, twitter_username,
	public_repos, public_gists, followers, following, github_created_at, github_updated_at, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Login, &u.Name, &u.Email, &u.Bio, &u.Company, &u.Location,
		&u.Blog, &u.TwitterUsername, &u.PublicRepos, &u.PublicGists, &u.Followers, &u.Following,
		&u.GithubCreatedAt, &u.GithubUpdatedAt, &u.DBCreatedAt, &u.DBUpdatedAt)
	return u, err
}

func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (model.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, storage.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if err := user.Validate(); err != nil {
		return model.User{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (external_id, login, name, email, bio, company, location, blog, twitter_username,
			public_repos, public_gists, followers, following, github_created_at, github_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+userColumns,
		user.ExternalID, user.Login, user.Name, user.Email, user.Bio, user.Company, user.Location,
		user.Blog, user.TwitterUsername, user.PublicRepos, user.PublicGists, user.Followers,
		user.Following, user.GithubCreatedAt, user.GithubUpdatedAt)
	created, err := scanUser(row)
	if err != nil {
		return model.User{}, wrapWriteError("user", err)
	}
	return created, nil
}

func (s *Store) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	if err := user.Validate(); err != nil {
		return model.User{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET login = $2, name = $3, email = $4, bio = $5, company = $6, location = $7, blog = $8,
			twitter_username = $9, public_repos = $10, public_gists = $11, followers = $12,
			following = $13, github_created_at = $14, github_updated_at = $15, updated_at = NOW()
		WHERE external_id = $1
		RETURNING `+userColumns,
		user.ExternalID, user.Login, user.Name, user.Email, user.Bio, user.Company, user.Location,
		user.Blog, user.TwitterUsername, user.PublicRepos, user.PublicGists, user.Followers,
		user.Following, user.GithubCreatedAt, user.GithubUpdatedAt)
	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, storage.ErrNotFound
	}
	if err != nil {
		return model.User{}, wrapWriteError("user", err)
	}
	return updated, nil
}

const pullRequestColumns = `id, external_id, repository_id, author_id, number, title, opened_at, closed_at,
	merged_at, additions, deletions, changed_files, commit_count, created_at, updated_at`

func scanPullRequest(row pgx.Row) (model.PullRequest, error) {
	var p model.PullRequest
	err := row.Scan(&p.ID, &p.ExternalID, &p.RepositoryID, &p.AuthorID, &p.Number, &p.Title,
		&p.OpenedAt, &p.ClosedAt, &p.MergedAt, &p.Additions, &p.Deletions, &p.ChangedFiles,
		&p.CommitCount, &p.DBCreatedAt, &p.DBUpdatedAt)
	return p, err
}

func (s *Store) GetPullRequestByExternalID(ctx context.Context, externalID string) (model.PullRequest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pullRequestColumns+` FROM pull_requests WHERE external_id = $1`, externalID)
	pr, err := scanPullRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PullRequest{}, storage.ErrNotFound
	}
	if err != nil {
		return model.PullRequest{}, fmt.Errorf("select pull request: %w", err)
	}
	return pr, nil
}

func (s *Store) CreatePullRequest(ctx context.Context, pr model.PullRequest) (model.PullRequest, error) {
	if err := pr.Validate(); err != nil {
		return model.PullRequest{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pull_requests (external_id, repository_id, author_id, number, title, opened_at,
			closed_at, merged_at, additions, deletions, changed_files, commit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+pullRequestColumns,
		pr.ExternalID, pr.RepositoryID, pr.AuthorID, pr.Number, pr.Title, pr.OpenedAt, pr.ClosedAt,
		pr.MergedAt, pr.Additions, pr.Deletions, pr.ChangedFiles, pr.CommitCount)
	created, err := scanPullRequest(row)
	if err != nil {
		return model.PullRequest{}, wrapWriteError("pull_request", err)
	}
	return created, nil
}

func (s *Store) UpdatePullRequest(ctx context.Context, pr model.PullRequest) (model.PullRequest, error) {
	if err := pr.Validate(); err != nil {
		return model.PullRequest{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE pull_requests
		SET repository_id = $2, author_id = $3, number = $4, title = $5, opened_at = $6, closed_at = $7,
			merged_at = $8, additions = $9, deletions = $10, changed_files = $11, commit_count = $12,
			updated_at = NOW()
		WHERE external_id = $1
		RETURNING `+pullRequestColumns,
		pr.ExternalID, pr.RepositoryID, pr.AuthorID, pr.Number, pr.Title, pr.OpenedAt, pr.ClosedAt,
		pr.MergedAt, pr.Additions, pr.Deletions, pr.ChangedFiles, pr.CommitCount)
	updated, err := scanPullRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PullRequest{}, storage.ErrNotFound
	}
	if err != nil {
		return model.PullRequest{}, wrapWriteError("pull_request", err)
	}
	return updated, nil
}

func (s *Store) ListPullRequestsByRepository(ctx context.Context, repositoryID int64) ([]model.PullRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pullRequestColumns+` FROM pull_requests WHERE repository_id = $1 ORDER BY number`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("select pull requests: %w", err)
	}
	defer rows.Close()

	var prs []model.PullRequest
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pull request: %w", err)
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull requests: %w", err)
	}
	return prs, nil
}

const reviewColumns = `id, external_id, pull_request_id, reviewer_id, state, submitted_at, created_at, updated_at`

func scanReview(row pgx.Row) (model.Review, error) {
	var r model.Review
	err := row.Scan(&r.ID, &r.ExternalID, &r.PullRequestID, &r.ReviewerID, &r.State, &r.SubmittedAt,
		&r.DBCreatedAt, &r.DBUpdatedAt)
	return r, err
}

func (s *Store) GetReviewByExternalID(ctx context.Context, externalID string) (model.Review, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE external_id = $1`, externalID)
	review, err := scanReview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Review{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Review{}, fmt.Errorf("select review: %w", err)
	}
	return review, nil
}

func (s *Store) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	if err := review.Validate(); err != nil {
		return model.Review{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reviews (external_id, pull_request_id, reviewer_id, state, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reviewColumns,
		review.ExternalID, review.PullRequestID, review.ReviewerID, string(review.State), review.SubmittedAt)
	created, err := scanReview(row)
	if err != nil {
		return model.Review{}, wrapWriteError("review", err)
	}
	return created, nil
}

func (s *Store) UpdateReview(ctx context.Context, review model.Review) (model.Review, error) {
	if err := review.Validate(); err != nil {
		return model.Review{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE reviews
		SET pull_request_id = $2, reviewer_id = $3, state = $4, submitted_at = $5, updated_at = NOW()
		WHERE external_id = $1
		RETURNING `+reviewColumns,
		review.ExternalID, review.PullRequestID, review.ReviewerID, string(review.State), review.SubmittedAt)
	updated, err := scanReview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Review{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Review{}, wrapWriteError("review", err)
	}
	return updated, nil
}

// wrapWriteError converts database constraint violations into the
// distinguishable validation error type; everything else is wrapped as-is.
func wrapWriteError(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &model.ValidationError{Entity: entity, Field: pgErr.ConstraintName, Reason: "already taken"}
		case "23503": // foreign_key_violation
			return &model.ValidationError{Entity: entity, Field: pgErr.ConstraintName, Reason: "references a missing row"}
		case "23514": // check_violation
			return &model.ValidationError{Entity: entity, Field: pgErr.ConstraintName, Reason: "violates a check constraint"}
		}
	}
	return fmt.Errorf("write %s: %w", entity, err)
}
