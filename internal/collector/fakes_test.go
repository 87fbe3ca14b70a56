// internal/collector/fakes_test.go
package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github-org-collector/internal/github"
	"github-org-collector/internal/model"
	"github-org-collector/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// fakeStore is an in-memory storage.Store keyed by external id. It validates
// like the real store and lets tests inject failures per method name.
type fakeStore struct {
	nextID  atomic.Int64
	repos   map[string]model.Repository
	users   map[string]model.User
	pulls   map[string]model.PullRequest
	reviews map[string]model.Review

	failures map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		repos:    make(map[string]model.Repository),
		users:    make(map[string]model.User),
		pulls:    make(map[string]model.PullRequest),
		reviews:  make(map[string]model.Review),
		failures: make(map[string]error),
	}
}

var _ storage.Store = (*fakeStore)(nil)

func (s *fakeStore) fail(method string) error { return s.failures[method] }

func (s *fakeStore) GetRepositoryByExternalID(_ context.Context, externalID string) (model.Repository, error) {
	if err := s.fail("GetRepositoryByExternalID"); err != nil {
		return model.Repository{}, err
	}
	repo, ok := s.repos[externalID]
	if !ok {
		return model.Repository{}, storage.ErrNotFound
	}
	return repo, nil
}

func (s *fakeStore) CreateRepository(_ context.Context, repo model.Repository) (model.Repository, error) {
	if err := s.fail("CreateRepository"); err != nil {
		return model.Repository{}, err
	}
	if err := repo.Validate(); err != nil {
		return model.Repository{}, err
	}
	if _, ok := s.repos[repo.ExternalID]; ok {
		return model.Repository{}, &model.ValidationError{Entity: "repository", Field: "external_id", Reason: "already exists"}
	}
	repo.ID = s.nextID.Add(1)
	s.repos[repo.ExternalID] = repo
	return repo, nil
}

func (s *fakeStore) UpdateRepository(_ context.Context, repo model.Repository) (model.Repository, error) {
	if err := s.fail("UpdateRepository"); err != nil {
		return model.Repository{}, err
	}
	if err := repo.Validate(); err != nil {
		return model.Repository{}, err
	}
	existing, ok := s.repos[repo.ExternalID]
	if !ok {
		return model.Repository{}, storage.ErrNotFound
	}
	repo.ID = existing.ID
	s.repos[repo.ExternalID] = repo
	return repo, nil
}

func (s *fakeStore) ListRepositories(_ context.Context) ([]model.Repository, error) {
	if err := s.fail("ListRepositories"); err != nil {
		return nil, err
	}
	out := make([]model.Repository, 0, len(s.repos))
	for _, repo := range s.repos {
		out = append(out, repo)
	}
	return out, nil
}

func (s *fakeStore) GetUserByExternalID(_ context.Context, externalID string) (model.User, error) {
	if err := s.fail("GetUserByExternalID"); err != nil {
		return model.User{}, err
	}
	user, ok := s.users[externalID]
	if !ok {
		return model.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *fakeStore) CreateUser(_ context.Context, user model.User) (model.User, error) {
	if err := s.fail("CreateUser"); err != nil {
		return model.User{}, err
	}
	if err := user.Validate(); err != nil {
		return model.User{}, err
	}
	if _, ok := s.users[user.ExternalID]; ok {
		return model.User{}, &model.ValidationError{Entity: "user", Field: "external_id", Reason: "already exists"}
	}
	user.ID = s.nextID.Add(1)
	s.users[user.ExternalID] = user
	return user, nil
}

func (s *fakeStore) UpdateUser(_ context.Context, user model.User) (model.User, error) {
	if err := s.fail("UpdateUser"); err != nil {
		return model.User{}, err
	}
	if err := user.Validate(); err != nil {
		return model.User{}, err
	}
	existing, ok := s.users[user.ExternalID]
	if !ok {
		return model.User{}, storage.ErrNotFound
	}
	user.ID = existing.ID
	s.users[user.ExternalID] = user
	return user, nil
}

func (s *fakeStore) GetPullRequestByExternalID(_ context.Context, externalID string) (model.PullRequest, error) {
	if err := s.fail("GetPullRequestByExternalID"); err != nil {
		return model.PullRequest{}, err
	}
	pr, ok := s.pulls[externalID]
	if !ok {
		return model.PullRequest{}, storage.ErrNotFound
	}
	return pr, nil
}

func (s *fakeStore) CreatePullRequest(_ context.Context, pr model.PullRequest) (model.PullRequest, error) {
	if err := s.fail("CreatePullRequest"); err != nil {
		return model.PullRequest{}, err
	}
	if err := pr.Validate(); err != nil {
		return model.PullRequest{}, err
	}
	if _, ok := s.pulls[pr.ExternalID]; ok {
		return model.PullRequest{}, &model.ValidationError{Entity: "pull_request", Field: "external_id", Reason: "already exists"}
	}
	pr.ID = s.nextID.Add(1)
	s.pulls[pr.ExternalID] = pr
	return pr, nil
}

func (s *fakeStore) UpdatePullRequest(_ context.Context, pr model.PullRequest) (model.PullRequest, error) {
	if err := s.fail("UpdatePullRequest"); err != nil {
		return model.PullRequest{}, err
	}
	if err := pr.Validate(); err != nil {
		return model.PullRequest{}, err
	}
	existing, ok := s.pulls[pr.ExternalID]
	if !ok {
		return model.PullRequest{}, storage.ErrNotFound
	}
	pr.ID = existing.ID
	s.pulls[pr.ExternalID] = pr
	return pr, nil
}

func (s *fakeStore) ListPullRequestsByRepository(_ context.Context, repositoryID int64) ([]model.PullRequest, error) {
	if err := s.fail("ListPullRequestsByRepository"); err != nil {
		return nil, err
	}
	var out []model.PullRequest
	for _, pr := range s.pulls {
		if pr.RepositoryID == repositoryID {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (s *fakeStore) GetReviewByExternalID(_ context.Context, externalID string) (model.Review, error) {
	if err := s.fail("GetReviewByExternalID"); err != nil {
		return model.Review{}, err
	}
	review, ok := s.reviews[externalID]
	if !ok {
		return model.Review{}, storage.ErrNotFound
	}
	return review, nil
}

func (s *fakeStore) CreateReview(_ context.Context, review model.Review) (model.Review, error) {
	if err := s.fail("CreateReview"); err != nil {
		return model.Review{}, err
	}
	if err := review.Validate(); err != nil {
		return model.Review{}, err
	}
	if _, ok := s.reviews[review.ExternalID]; ok {
		return model.Review{}, &model.ValidationError{Entity: "review", Field: "external_id", Reason: "already exists"}
	}
	review.ID = s.nextID.Add(1)
	s.reviews[review.ExternalID] = review
	return review, nil
}

func (s *fakeStore) UpdateReview(_ context.Context, review model.Review) (model.Review, error) {
	if err := s.fail("UpdateReview"); err != nil {
		return model.Review{}, err
	}
	if err := review.Validate(); err != nil {
		return model.Review{}, err
	}
	existing, ok := s.reviews[review.ExternalID]
	if !ok {
		return model.Review{}, storage.ErrNotFound
	}
	review.ID = existing.ID
	s.reviews[review.ExternalID] = review
	return review, nil
}

// fakeSource serves canned raw records and records every call it receives.
type fakeSource struct {
	repos    []github.RawRepository
	pulls    map[string][]github.RawPullRequest
	reviews  map[string][]github.RawReview
	profiles map[string]github.RawUserProfile

	listReposErr error
	pullsErr     map[string]error
	reviewsErr   map[string]error
	profileErr   map[string]error

	calls []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pulls:      make(map[string][]github.RawPullRequest),
		reviews:    make(map[string][]github.RawReview),
		profiles:   make(map[string]github.RawUserProfile),
		pullsErr:   make(map[string]error),
		reviewsErr: make(map[string]error),
		profileErr: make(map[string]error),
	}
}

var _ Source = (*fakeSource)(nil)

func (s *fakeSource) ListOrganizationRepositories(_ context.Context, org string, _ int) ([]github.RawRepository, error) {
	s.calls = append(s.calls, "repos:"+org)
	if s.listReposErr != nil {
		return nil, s.listReposErr
	}
	return s.repos, nil
}

func (s *fakeSource) ListPullRequests(_ context.Context, _, repo string, _ int) ([]github.RawPullRequest, error) {
	s.calls = append(s.calls, "pulls:"+repo)
	if err := s.pullsErr[repo]; err != nil {
		return nil, err
	}
	return s.pulls[repo], nil
}

func (s *fakeSource) ListReviews(_ context.Context, _, repo string, number int, _ int) ([]github.RawReview, error) {
	key := fmt.Sprintf("%s#%d", repo, number)
	s.calls = append(s.calls, "reviews:"+key)
	if err := s.reviewsErr[key]; err != nil {
		return nil, err
	}
	return s.reviews[key], nil
}

func (s *fakeSource) GetUserProfile(_ context.Context, login string) (github.RawUserProfile, error) {
	s.calls = append(s.calls, "profile:"+login)
	if err := s.profileErr[login]; err != nil {
		return github.RawUserProfile{}, err
	}
	profile, ok := s.profiles[login]
	if !ok {
		return github.RawUserProfile{}, &github.Error{Kind: github.KindNotFound, StatusCode: 404}
	}
	return profile, nil
}

func rawRepo(id int64, name string) github.RawRepository {
	return github.RawRepository{
		ID:       ptr(id),
		Name:     ptr(name),
		HTMLURL:  ptr("https://github.com/acme/" + name),
		Private:  ptr(false),
		Archived: ptr(false),
	}
}

func rawPull(id int64, number int, repoID int64, userID int64, login string) github.RawPullRequest {
	return github.RawPullRequest{
		ID:     ptr(id),
		Number: ptr(number),
		Title:  ptr(fmt.Sprintf("change %d", number)),
		User:   &github.RawAccount{ID: ptr(userID), Login: ptr(login)},
		Base:   &github.RawBase{Repo: &github.RawRepoRef{ID: ptr(repoID)}},
	}
}

func rawReview(id int64, userID int64, login, state string) github.RawReview {
	return github.RawReview{
		ID:    ptr(id),
		User:  &github.RawAccount{ID: ptr(userID), Login: ptr(login)},
		State: ptr(state),
	}
}
