// internal/github/users.go
package github

import (
	"context"
	"fmt"
	"time"
)

// RawUserProfile is the full user profile from the users/{login} endpoint,
// used to enrich shallow user rows created during PR and review ingestion.
type RawUserProfile struct {
	ID              *int64     `json:"id"`
	Login           *string    `json:"login"`
	Name            *string    `json:"name"`
	Email           *string    `json:"email"`
	Bio             *string    `json:"bio"`
	Company         *string    `json:"company"`
	Location        *string    `json:"location"`
	Blog            *string    `json:"blog"`
	TwitterUsername *string    `json:"twitter_username"`
	PublicRepos     int        `json:"public_repos"`
	PublicGists     int        `json:"public_gists"`
	Followers       int        `json:"followers"`
	Following       int        `json:"following"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

// Validate checks the minimum field set needed to persist the record.
func (u RawUserProfile) Validate() error {
	var missing []string
	if u.ID == nil {
		missing = append(missing, "id")
	}
	if u.Login == nil {
		missing = append(missing, "login")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Entity: "user", Fields: missing}
	}
	return nil
}

// GetUserProfile fetches a single user profile by login. Not paginated.
func (f *Fetcher) GetUserProfile(ctx context.Context, login string) (RawUserProfile, error) {
	f.logger.Debug("fetching user profile", "login", login)

	var profile RawUserProfile
	if err := f.getJSON(ctx, fmt.Sprintf("users/%s", login), nil, &profile); err != nil {
		return RawUserProfile{}, err
	}
	return profile, nil
}
