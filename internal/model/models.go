// internal/model/models.go
package model

import (
	"fmt"
	"time"
)

// ReviewState is the local enumeration for the outcome of a pull request review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
	ReviewDismissed        ReviewState = "dismissed"
)

// Valid reports whether s is one of the known review states.
func (s ReviewState) Valid() bool {
	switch s {
	case ReviewApproved, ReviewChangesRequested, ReviewCommented, ReviewDismissed:
		return true
	}
	return false
}

// ValidationError is returned when an entity violates one of its field-level
// constraints. It is distinguishable from transport and storage failures so
// callers can skip the offending record and keep going.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: field %q %s", e.Entity, e.Field, e.Reason)
}

// Repository is a GitHub repository tracked locally. ExternalID is the string
// form of GitHub's numeric id and is the upsert key.
type Repository struct {
	ID          int64
	ExternalID  string
	Name        string
	URL         string
	IsPrivate   bool
	IsArchived  bool
	DBCreatedAt time.Time
	DBUpdatedAt time.Time
}

// Validate checks the repository's field-level constraints.
func (r Repository) Validate() error {
	if r.ExternalID == "" {
		return &ValidationError{Entity: "repository", Field: "external_id", Reason: "is required"}
	}
	if r.Name == "" {
		return &ValidationError{Entity: "repository", Field: "name", Reason: "is required"}
	}
	if r.URL == "" {
		return &ValidationError{Entity: "repository", Field: "url", Reason: "is required"}
	}
	return nil
}

// User is a GitHub account seen as a pull request author or a reviewer.
// A row may exist shallow (external id + login only) until a dedicated
// profile fetch enriches it; the row identity never changes.
type User struct {
	ID              int64
	ExternalID      string
	Login           string
	Name            *string
	Email           *string
	Bio             *string
	Company         *string
	Location        *string
	Blog            *string
	TwitterUsername *string
	PublicRepos     int
	PublicGists     int
	Followers       int
	Following       int
	GithubCreatedAt *time.Time
	GithubUpdatedAt *time.Time
	DBCreatedAt     time.Time
	DBUpdatedAt     time.Time
}

// Validate checks the user's field-level constraints.
func (u User) Validate() error {
	if u.ExternalID == "" {
		return &ValidationError{Entity: "user", Field: "external_id", Reason: "is required"}
	}
	if u.Login == "" {
		return &ValidationError{Entity: "user", Field: "login", Reason: "is required"}
	}
	counters := []struct {
		field string
		value int
	}{
		{"public_repos", u.PublicRepos},
		{"public_gists", u.PublicGists},
		{"followers", u.Followers},
		{"following", u.Following},
	}
	for _, c := range counters {
		if c.value < 0 {
			return &ValidationError{Entity: "user", Field: c.field, Reason: "must be non-negative"}
		}
	}
	return nil
}

// PullRequest belongs to a Repository and is authored by a User. A nil
// ClosedAt means the pull request is still open; a nil MergedAt means it was
// not merged. Both may be nil (open PR), and ClosedAt may be set with
// MergedAt nil (closed without merge). OpenedAt is the source-side creation
// time when the upstream record carried one.
type PullRequest struct {
	ID           int64
	ExternalID   string
	RepositoryID int64
	AuthorID     int64
	Number       int
	Title        string
	OpenedAt     *time.Time
	ClosedAt     *time.Time
	MergedAt     *time.Time
	Additions    int
	Deletions    int
	ChangedFiles int
	CommitCount  int
	DBCreatedAt  time.Time
	DBUpdatedAt  time.Time
}

// Validate checks the pull request's field-level constraints.
func (p PullRequest) Validate() error {
	if p.ExternalID == "" {
		return &ValidationError{Entity: "pull_request", Field: "external_id", Reason: "is required"}
	}
	if p.Number <= 0 {
		return &ValidationError{Entity: "pull_request", Field: "number", Reason: "must be positive"}
	}
	if p.Title == "" {
		return &ValidationError{Entity: "pull_request", Field: "title", Reason: "is required"}
	}
	if p.RepositoryID == 0 {
		return &ValidationError{Entity: "pull_request", Field: "repository_id", Reason: "is required"}
	}
	if p.AuthorID == 0 {
		return &ValidationError{Entity: "pull_request", Field: "author_id", Reason: "is required"}
	}
	counters := []struct {
		field string
		value int
	}{
		{"additions", p.Additions},
		{"deletions", p.Deletions},
		{"changed_files", p.ChangedFiles},
		{"commit_count", p.CommitCount},
	}
	for _, c := range counters {
		if c.value < 0 {
			return &ValidationError{Entity: "pull_request", Field: c.field, Reason: "must be non-negative"}
		}
	}
	return nil
}

// Open reports whether the pull request has not been closed yet.
func (p PullRequest) Open() bool { return p.ClosedAt == nil }

// Merged reports whether the pull request was merged.
func (p PullRequest) Merged() bool { return p.MergedAt != nil }

// TotalChanges is the added plus deleted line count.
func (p PullRequest) TotalChanges() int { return p.Additions + p.Deletions }

// Review belongs to a PullRequest and is written by a User. A nil SubmittedAt
// means the review has not been submitted yet.
type Review struct {
	ID            int64
	ExternalID    string
	PullRequestID int64
	ReviewerID    int64
	State         ReviewState
	SubmittedAt   *time.Time
	DBCreatedAt   time.Time
	DBUpdatedAt   time.Time
}

// Validate checks the review's field-level constraints.
func (r Review) Validate() error {
	if r.ExternalID == "" {
		return &ValidationError{Entity: "review", Field: "external_id", Reason: "is required"}
	}
	if r.PullRequestID == 0 {
		return &ValidationError{Entity: "review", Field: "pull_request_id", Reason: "is required"}
	}
	if r.ReviewerID == 0 {
		return &ValidationError{Entity: "review", Field: "reviewer_id", Reason: "is required"}
	}
	if !r.State.Valid() {
		return &ValidationError{Entity: "review", Field: "state", Reason: "must be one of: approved, changes_requested, commented, dismissed"}
	}
	return nil
}
