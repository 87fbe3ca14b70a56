// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github-org-collector/internal/model"
)

// ErrNotFound is returned by the Get* methods when no row matches.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence collaborator consumed by the ingestion pipeline:
// find-by-external-id, create, and update-in-place per entity type. Create
// and Update enforce each entity's field-level constraints and return a
// *model.ValidationError on violation.
type Store interface {
	GetRepositoryByExternalID(ctx context.Context, externalID string) (model.Repository, error)
	CreateRepository(ctx context.Context, repo model.Repository) (model.Repository, error)
	UpdateRepository(ctx context.Context, repo model.Repository) (model.Repository, error)
	ListRepositories(ctx context.Context) ([]model.Repository, error)

	GetUserByExternalID(ctx context.Context, externalID string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)

	GetPullRequestByExternalID(ctx context.Context, externalID string) (model.PullRequest, error)
	CreatePullRequest(ctx context.Context, pr model.PullRequest) (model.PullRequest, error)
	UpdatePullRequest(ctx context.Context, pr model.PullRequest) (model.PullRequest, error)
	ListPullRequestsByRepository(ctx context.Context, repositoryID int64) ([]model.PullRequest, error)

	GetReviewByExternalID(ctx context.Context, externalID string) (model.Review, error)
	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
	UpdateReview(ctx context.Context, review model.Review) (model.Review, error)
}
