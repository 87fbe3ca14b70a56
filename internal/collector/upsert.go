// internal/collector/upsert.go
package collector

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github-org-collector/internal/github"
	"github-org-collector/internal/model"
	"github-org-collector/internal/storage"
)

// Outcome says what the upsert of a single raw record did.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

// RecordResult is the explicit per-record outcome of an upsert attempt.
// Skips carry a reason; they are aggregated by the caller, never raised.
type RecordResult struct {
	Outcome Outcome
	Reason  string
}

// Persisted reports whether the record ended up in the store.
func (r RecordResult) Persisted() bool {
	return r.Outcome == OutcomeCreated || r.Outcome == OutcomeUpdated
}

func skipped(reason string) RecordResult {
	return RecordResult{Outcome: OutcomeSkipped, Reason: reason}
}

// upserter reconciles raw API records against the local store: look up by
// external id, create if absent, otherwise overwrite the mutable attributes.
// External ids are never changed once written.
type upserter struct {
	store  storage.Store
	logger *slog.Logger
}

func (u *upserter) upsertRepository(ctx context.Context, raw github.RawRepository) (model.Repository, RecordResult) {
	if err := raw.Validate(); err != nil {
		u.logger.Error("skipping repository record", "error", err)
		return model.Repository{}, skipped(err.Error())
	}

	externalID := strconv.FormatInt(*raw.ID, 10)
	attrs := model.Repository{
		ExternalID: externalID,
		Name:       *raw.Name,
		URL:        *raw.HTMLURL,
		IsPrivate:  *raw.Private,
		IsArchived: *raw.Archived,
	}

	existing, err := u.store.GetRepositoryByExternalID(ctx, externalID)
	if errors.Is(err, storage.ErrNotFound) {
		created, err := u.store.CreateRepository(ctx, attrs)
		if err != nil {
			u.logger.Error("failed to create repository", "external_id", externalID, "error", err)
			return model.Repository{}, skipped(err.Error())
		}
		u.logger.Debug("created repository", "external_id", externalID, "name", created.Name)
		return created, RecordResult{Outcome: OutcomeCreated}
	}
	if err != nil {
		u.logger.Error("repository lookup failed", "external_id", externalID, "error", err)
		return model.Repository{}, skipped(err.Error())
	}

	attrs.ID = existing.ID
	updated, err := u.store.UpdateRepository(ctx, attrs)
	if err != nil {
		u.logger.Error("failed to update repository", "external_id", externalID, "error", err)
		return model.Repository{}, skipped(err.Error())
	}
	u.logger.Debug("updated repository", "external_id", externalID, "name", updated.Name)
	return updated, RecordResult{Outcome: OutcomeUpdated}
}

// resolveUser is the shared de-duplication helper for authorship and review
// roles. An unseen account gets a shallow row (external id + login only); a
// seen one has its login refreshed if it changed. Full profile enrichment is
// a separate fetch and reuses the same row.
func (u *upserter) resolveUser(ctx context.Context, raw *github.RawAccount) (model.User, RecordResult) {
	if raw == nil || raw.ID == nil || raw.Login == nil {
		return model.User{}, skipped("user reference missing id or login")
	}

	externalID := strconv.FormatInt(*raw.ID, 10)
	existing, err := u.store.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, storage.ErrNotFound) {
		created, err := u.store.CreateUser(ctx, model.User{ExternalID: externalID, Login: *raw.Login})
		if err != nil {
			u.logger.Error("failed to create user", "external_id", externalID, "login", *raw.Login, "error", err)
			return model.User{}, skipped(err.Error())
		}
		u.logger.Debug("created shallow user", "external_id", externalID, "login", created.Login)
		return created, RecordResult{Outcome: OutcomeCreated}
	}
	if err != nil {
		u.logger.Error("user lookup failed", "external_id", externalID, "error", err)
		return model.User{}, skipped(err.Error())
	}

	if existing.Login == *raw.Login {
		return existing, RecordResult{Outcome: OutcomeUpdated}
	}
	existing.Login = *raw.Login
	updated, err := u.store.UpdateUser(ctx, existing)
	if err != nil {
		u.logger.Error("failed to refresh user login", "external_id", externalID, "error", err)
		return model.User{}, skipped(err.Error())
	}
	u.logger.Debug("refreshed user login", "external_id", externalID, "login", updated.Login)
	return updated, RecordResult{Outcome: OutcomeUpdated}
}

// upsertPullRequest resolves the base repository and the author before
// writing. A record whose repository or author cannot be resolved is
// skipped, never created as an orphan.
func (u *upserter) upsertPullRequest(ctx context.Context, raw github.RawPullRequest) (model.PullRequest, RecordResult) {
	if err := raw.Validate(); err != nil {
		u.logger.Error("skipping pull request record", "error", err)
		return model.PullRequest{}, skipped(err.Error())
	}

	baseRepoID := strconv.FormatInt(*raw.Base.Repo.ID, 10)
	repo, err := u.store.GetRepositoryByExternalID(ctx, baseRepoID)
	if err != nil {
		u.logger.Warn("skipping pull request, base repository not resolved",
			"number", *raw.Number, "repository_external_id", baseRepoID, "error", err)
		return model.PullRequest{}, skipped("base repository not found")
	}

	author, res := u.resolveUser(ctx, raw.User)
	if !res.Persisted() {
		u.logger.Warn("skipping pull request, author not resolved", "number", *raw.Number, "reason", res.Reason)
		return model.PullRequest{}, skipped("author not resolved: " + res.Reason)
	}

	externalID := strconv.FormatInt(*raw.ID, 10)
	attrs := model.PullRequest{
		ExternalID:   externalID,
		RepositoryID: repo.ID,
		AuthorID:     author.ID,
		Number:       *raw.Number,
		Title:        *raw.Title,
		OpenedAt:     raw.CreatedAt,
		ClosedAt:     raw.ClosedAt,
		MergedAt:     raw.MergedAt,
		Additions:    raw.Additions,
		Deletions:    raw.Deletions,
		ChangedFiles: raw.ChangedFiles,
		CommitCount:  raw.Commits,
	}

	existing, err := u.store.GetPullRequestByExternalID(ctx, externalID)
	if errors.Is(err, storage.ErrNotFound) {
		created, err := u.store.CreatePullRequest(ctx, attrs)
		if err != nil {
			u.logger.Error("failed to create pull request", "external_id", externalID, "number", attrs.Number, "error", err)
			return model.PullRequest{}, skipped(err.Error())
		}
		u.logger.Debug("created pull request", "external_id", externalID, "number", created.Number)
		return created, RecordResult{Outcome: OutcomeCreated}
	}
	if err != nil {
		u.logger.Error("pull request lookup failed", "external_id", externalID, "error", err)
		return model.PullRequest{}, skipped(err.Error())
	}

	attrs.ID = existing.ID
	updated, err := u.store.UpdatePullRequest(ctx, attrs)
	if err != nil {
		u.logger.Error("failed to update pull request", "external_id", externalID, "error", err)
		return model.PullRequest{}, skipped(err.Error())
	}
	u.logger.Debug("updated pull request", "external_id", externalID, "number", updated.Number)
	return updated, RecordResult{Outcome: OutcomeUpdated}
}

// upsertReview resolves the owning pull request and the reviewer before
// writing, under the same no-orphans rule as pull requests.
func (u *upserter) upsertReview(ctx context.Context, raw github.RawReview, pr model.PullRequest) (model.Review, RecordResult) {
	if err := raw.Validate(); err != nil {
		u.logger.Error("skipping review record", "error", err)
		return model.Review{}, skipped(err.Error())
	}

	reviewer, res := u.resolveUser(ctx, raw.User)
	if !res.Persisted() {
		u.logger.Warn("skipping review, reviewer not resolved", "pull_request", pr.Number, "reason", res.Reason)
		return model.Review{}, skipped("reviewer not resolved: " + res.Reason)
	}

	externalID := strconv.FormatInt(*raw.ID, 10)
	attrs := model.Review{
		ExternalID:    externalID,
		PullRequestID: pr.ID,
		ReviewerID:    reviewer.ID,
		State:         mapReviewState(*raw.State),
		SubmittedAt:   raw.SubmittedAt,
	}

	existing, err := u.store.GetReviewByExternalID(ctx, externalID)
	if errors.Is(err, storage.ErrNotFound) {
		created, err := u.store.CreateReview(ctx, attrs)
		if err != nil {
			u.logger.Error("failed to create review", "external_id", externalID, "error", err)
			return model.Review{}, skipped(err.Error())
		}
		u.logger.Debug("created review", "external_id", externalID, "state", created.State)
		return created, RecordResult{Outcome: OutcomeCreated}
	}
	if err != nil {
		u.logger.Error("review lookup failed", "external_id", externalID, "error", err)
		return model.Review{}, skipped(err.Error())
	}

	attrs.ID = existing.ID
	updated, err := u.store.UpdateReview(ctx, attrs)
	if err != nil {
		u.logger.Error("failed to update review", "external_id", externalID, "error", err)
		return model.Review{}, skipped(err.Error())
	}
	u.logger.Debug("updated review", "external_id", externalID, "state", updated.State)
	return updated, RecordResult{Outcome: OutcomeUpdated}
}

// enrichUserProfile overwrites a user row with the full profile payload. The
// row is created if the profile fetch races ahead of PR ingestion.
func (u *upserter) enrichUserProfile(ctx context.Context, raw github.RawUserProfile) (model.User, RecordResult) {
	if err := raw.Validate(); err != nil {
		u.logger.Error("skipping user profile record", "error", err)
		return model.User{}, skipped(err.Error())
	}

	externalID := strconv.FormatInt(*raw.ID, 10)
	attrs := model.User{
		ExternalID:      externalID,
		Login:           *raw.Login,
		Name:            raw.Name,
		Email:           raw.Email,
		Bio:             raw.Bio,
		Company:         raw.Company,
		Location:        raw.Location,
		Blog:            raw.Blog,
		TwitterUsername: raw.TwitterUsername,
		PublicRepos:     raw.PublicRepos,
		PublicGists:     raw.PublicGists,
		Followers:       raw.Followers,
		Following:       raw.Following,
		GithubCreatedAt: raw.CreatedAt,
		GithubUpdatedAt: raw.UpdatedAt,
	}

	existing, err := u.store.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, storage.ErrNotFound) {
		created, err := u.store.CreateUser(ctx, attrs)
		if err != nil {
			u.logger.Error("failed to create user profile", "external_id", externalID, "error", err)
			return model.User{}, skipped(err.Error())
		}
		return created, RecordResult{Outcome: OutcomeCreated}
	}
	if err != nil {
		u.logger.Error("user lookup failed", "external_id", externalID, "error", err)
		return model.User{}, skipped(err.Error())
	}

	attrs.ID = existing.ID
	updated, err := u.store.UpdateUser(ctx, attrs)
	if err != nil {
		u.logger.Error("failed to update user profile", "external_id", externalID, "error", err)
		return model.User{}, skipped(err.Error())
	}
	u.logger.Debug("enriched user profile", "external_id", externalID, "login", updated.Login)
	return updated, RecordResult{Outcome: OutcomeUpdated}
}

// mapReviewState maps an upstream review state to the local enum. Unknown
// states fall back to commented.
func mapReviewState(state string) model.ReviewState {
	switch state {
	case "APPROVED":
		return model.ReviewApproved
	case "CHANGES_REQUESTED":
		return model.ReviewChangesRequested
	case "COMMENTED":
		return model.ReviewCommented
	case "DISMISSED":
		return model.ReviewDismissed
	default:
		return model.ReviewCommented
	}
}
