// internal/github/client_test.go
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestClient creates an httptest server and a client pointing at it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "test-token", 5*time.Second, discardLogger())
	require.NoError(t, err)
	return client, server
}

func TestClient_Get_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orgs/acme/repos", r.URL.Path)
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `[{"id": 1}]`)
	})
	client, _ := setupTestClient(t, handler)

	body, err := client.Get(context.Background(), "orgs/acme/repos", nil)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 1}]`, string(body))
}

func TestClient_Get_Classification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		headers       map[string]string
		wantKind      ErrorKind
		wantRetryable bool
	}{
		{"401 is a fatal authentication failure", http.StatusUnauthorized, nil, KindAuthentication, false},
		{"403 with exhausted quota is a retryable rate limit", http.StatusForbidden, map[string]string{"x-ratelimit-remaining": "0", "x-ratelimit-limit": "5000"}, KindRateLimit, true},
		{"403 with quota left is fatal forbidden", http.StatusForbidden, map[string]string{"x-ratelimit-remaining": "42"}, KindForbidden, false},
		{"403 without rate headers is fatal forbidden", http.StatusForbidden, nil, KindForbidden, false},
		{"404 is fatal not found", http.StatusNotFound, nil, KindNotFound, false},
		{"422 is fatal validation", http.StatusUnprocessableEntity, nil, KindValidation, false},
		{"429 is a retryable rate limit", http.StatusTooManyRequests, nil, KindRateLimit, true},
		{"500 is a retryable server failure", http.StatusInternalServerError, nil, KindServer, true},
		{"502 is retryable transient", http.StatusBadGateway, nil, KindTransient, true},
		{"503 is retryable transient", http.StatusServiceUnavailable, nil, KindTransient, true},
		{"504 is retryable transient", http.StatusGatewayTimeout, nil, KindTransient, true},
		{"599 is a retryable server failure", 599, nil, KindServer, true},
		{"418 falls through to the generic api failure", http.StatusTeapot, nil, KindAPI, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				fmt.Fprintln(w, `{"message": "upstream says no"}`)
			})
			client, _ := setupTestClient(t, handler)

			_, err := client.Get(context.Background(), "orgs/acme/repos", nil)

			require.Error(t, err)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantRetryable, apiErr.Retryable())
			assert.Equal(t, "upstream says no", apiErr.Message)
		})
	}
}

func TestClient_Get_SurfacesRateState(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-remaining", "0")
		w.Header().Set("x-ratelimit-limit", "5000")
		w.Header().Set("x-ratelimit-reset", fmt.Sprintf("%d", reset))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
	})
	client, _ := setupTestClient(t, handler)

	_, err := client.Get(context.Background(), "orgs/acme/repos", nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Rate.Remaining)
	assert.Equal(t, 5000, apiErr.Rate.Limit)
	assert.Equal(t, reset, apiErr.Rate.Reset.Unix())
}

func TestClient_Get_NetworkFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(server.URL, "", time.Second, discardLogger())
	require.NoError(t, err)
	server.Close() // nothing is listening anymore

	_, err = client.Get(context.Background(), "orgs/acme/repos", nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTransient, apiErr.Kind)
}

func TestParseRate(t *testing.T) {
	t.Run("absent headers", func(t *testing.T) {
		_, ok := parseRate(http.Header{})
		assert.False(t, ok)
	})

	t.Run("full headers", func(t *testing.T) {
		h := http.Header{}
		h.Set("x-ratelimit-remaining", "17")
		h.Set("x-ratelimit-limit", "5000")
		h.Set("x-ratelimit-reset", "1700000000")
		rate, ok := parseRate(h)
		require.True(t, ok)
		assert.Equal(t, 17, rate.Remaining)
		assert.Equal(t, 5000, rate.Limit)
		assert.Equal(t, int64(1700000000), rate.Reset.Unix())
	})
}
