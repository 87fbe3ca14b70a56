// internal/github/fetcher.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// Fetcher composes the transport client with the retry policy and exposes
// per-entity retrieval: one endpoint template, fixed query parameters, and
// decoding into a raw record type per entity.
type Fetcher struct {
	client *Client
	retry  *RetryPolicy
	logger *slog.Logger
}

// NewFetcher creates a Fetcher issuing requests through client, with every
// request wrapped by retry.
func NewFetcher(client *Client, retry *RetryPolicy, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		retry:  retry,
		logger: logger,
	}
}

// getJSON performs one retry-wrapped GET and decodes the response into out.
func (f *Fetcher) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	var payload []byte
	err := f.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		payload, err = f.client.Get(ctx, path, query)
		return err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func pageQuery(page int, extra url.Values) url.Values {
	q := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}
