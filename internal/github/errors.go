// internal/github/errors.go
package github

import "fmt"

// ErrorKind classifies a failed GitHub API request. The kind decides whether
// the request may be retried or must propagate immediately.
type ErrorKind int

const (
	// KindAPI is the generic catch-all for unexpected statuses. Fatal.
	KindAPI ErrorKind = iota
	// KindAuthentication covers 401 responses. Fatal.
	KindAuthentication
	// KindForbidden covers 403 responses that are not rate limiting. Fatal.
	KindForbidden
	// KindNotFound covers 404 responses. Fatal.
	KindNotFound
	// KindValidation covers 422 responses. Fatal.
	KindValidation
	// KindRateLimit covers 429 and 403-with-exhausted-quota responses. Retryable.
	KindRateLimit
	// KindServer covers 5xx responses other than 502/503/504. Retryable.
	KindServer
	// KindTransient covers 502/503/504 and network-level failures. Retryable.
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	case KindTransient:
		return "transient"
	default:
		return "api"
	}
}

// Error is the classified outcome of a failed API request.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Rate       Rate
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("github: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

// Retryable reports whether the failure is worth resubmitting after a backoff.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindTransient:
		return true
	}
	return false
}

// MissingFieldsError is returned when a raw API record lacks fields required
// to persist it. The record is skipped, never the whole page.
type MissingFieldsError struct {
	Entity string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s record missing required fields: %v", e.Entity, e.Fields)
}
