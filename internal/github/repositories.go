// internal/github/repositories.go
package github

import (
	"context"
	"fmt"
	"net/url"
)

// RawRepository is one record from the organization repositories listing.
// Required fields are pointers so a missing key is distinguishable from a
// zero value.
type RawRepository struct {
	ID       *int64  `json:"id"`
	Name     *string `json:"name"`
	HTMLURL  *string `json:"html_url"`
	Private  *bool   `json:"private"`
	Archived *bool   `json:"archived"`
}

// Validate checks the minimum field set needed to persist the record.
func (r RawRepository) Validate() error {
	var missing []string
	if r.ID == nil {
		missing = append(missing, "id")
	}
	if r.Name == nil {
		missing = append(missing, "name")
	}
	if r.HTMLURL == nil {
		missing = append(missing, "html_url")
	}
	if r.Private == nil {
		missing = append(missing, "private")
	}
	if r.Archived == nil {
		missing = append(missing, "archived")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Entity: "repository", Fields: missing}
	}
	return nil
}

// ListOrganizationRepositories fetches the organization's repositories across
// pages, most recently updated first. maxPages of 0 means paginate until an
// empty page (the safety ceiling still applies).
func (f *Fetcher) ListOrganizationRepositories(ctx context.Context, org string, maxPages int) ([]RawRepository, error) {
	f.logger.Info("fetching organization repositories", "org", org)
	return CollectPages(ctx, f.logger, maxPages, func(ctx context.Context, page int) ([]RawRepository, error) {
		return f.repositoriesPage(ctx, org, page)
	})
}

func (f *Fetcher) repositoriesPage(ctx context.Context, org string, page int) ([]RawRepository, error) {
	f.logger.Debug("fetching repositories page", "org", org, "page", page)
	q := pageQuery(page, url.Values{
		"sort":      {"updated"},
		"direction": {"desc"},
	})

	var repos []RawRepository
	if err := f.getJSON(ctx, fmt.Sprintf("orgs/%s/repos", org), q, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}
