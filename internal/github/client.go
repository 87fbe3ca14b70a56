// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	userAgent = "github-org-collector/1.0"

	// Remaining quota below this threshold is logged as a warning. It is
	// informational only, not a failure.
	lowRateThreshold = 10
)

// Rate is the rate-limit state read from the x-ratelimit-* response headers.
type Rate struct {
	Remaining int
	Limit     int
	Reset     time.Time
}

// Client issues single HTTP requests against the GitHub REST API and
// classifies every response into either a raw payload or a typed *Error.
// Retrying and pagination are layered on top, not handled here.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger
}

// NewClient creates a Client talking to baseURL. The token is injected via an
// oauth2 transport so the request path never touches it directly.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: ts},
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		logger:     logger,
	}, nil
}

// Get performs one GET request against path (relative to the base URL) and
// returns the raw response body. Failures come back as *Error.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Do performs one request and classifies the response. A non-nil error is
// either a *Error (classified API failure) or a request-construction error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse request path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)
	if query != nil {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level failures (refused, reset, timeout) are worth a retry.
		return nil, &Error{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, StatusCode: resp.StatusCode, Message: "read response body: " + err.Error()}
	}

	rate, rateKnown := parseRate(resp.Header)
	if rateKnown {
		c.observeRate(method, path, rate)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return payload, nil
	}

	apiErr := &Error{
		Kind:       classify(resp.StatusCode, rate, rateKnown),
		StatusCode: resp.StatusCode,
		Message:    errorMessage(payload),
		Rate:       rate,
	}
	return nil, apiErr
}

// classify maps a response status (plus rate-limit state for 403) to an
// error kind, per the upstream API's documented failure modes.
func classify(status int, rate Rate, rateKnown bool) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		if rateKnown && rate.Remaining == 0 {
			return KindRateLimit
		}
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return KindTransient
	case status >= 500 && status <= 599:
		return KindServer
	default:
		return KindAPI
	}
}

func (c *Client) observeRate(method, path string, rate Rate) {
	c.logger.Debug("github rate limit state",
		"method", method,
		"path", path,
		"remaining", rate.Remaining,
		"limit", rate.Limit,
		"reset", rate.Reset.Format(time.RFC3339),
	)
	if rate.Remaining < lowRateThreshold {
		c.logger.Warn("github rate limit nearly exhausted",
			"remaining", rate.Remaining,
			"limit", rate.Limit,
			"reset", rate.Reset.Format(time.RFC3339),
		)
	}
}

func parseRate(h http.Header) (Rate, bool) {
	remainingRaw := h.Get("x-ratelimit-remaining")
	if remainingRaw == "" {
		return Rate{}, false
	}
	remaining, err := strconv.Atoi(remainingRaw)
	if err != nil {
		return Rate{}, false
	}

	rate := Rate{Remaining: remaining}
	if limit, err := strconv.Atoi(h.Get("x-ratelimit-limit")); err == nil {
		rate.Limit = limit
	}
	if reset, err := strconv.ParseInt(h.Get("x-ratelimit-reset"), 10, 64); err == nil {
		rate.Reset = time.Unix(reset, 0)
	}
	return rate, true
}

// errorMessage pulls the "message" field out of a GitHub error body, falling
// back to the raw body when it is not the usual JSON shape.
func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(string(payload))
	if msg == "" {
		return "no response body"
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
