package providers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Kind classifies an adapter failure.
type Kind int

const (
	// KindUnavailable covers network errors, timeouts, 408 and 5xx.
	KindUnavailable Kind = iota + 1
	// KindRateLimited is a 429 from the upstream.
	KindRateLimited
	// KindMalformed means the upstream answered but the body is unusable.
	KindMalformed
	// KindNotConfigured means credentials are missing.
	KindNotConfigured
	// KindRejected is any other 4xx.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate_limited"
	case KindMalformed:
		return "malformed"
	case KindNotConfigured:
		return "not_configured"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrNotConfigured is wrapped by every KindNotConfigured error.
var ErrNotConfigured = errors.New("provider not configured")

// Error is the classified failure returned by every adapter.
type Error struct {
	Provider string
	Kind     Kind
	Status   int // upstream HTTP status, 0 when no response was read
	Err      error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (http %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusCode exposes the upstream status.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// KindOf returns the classification of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsRetryable reports whether another attempt could succeed.
// Only transport-level unavailability and rate limiting qualify.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindUnavailable, KindRateLimited:
		return true
	}
	return false
}

func notConfigured(provider, what string) *Error {
	return &Error{Provider: provider, Kind: KindNotConfigured, Err: fmt.Errorf("%w: missing %s", ErrNotConfigured, what)}
}

func malformed(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindMalformed, Err: err}
}

// statusError classifies a non-2xx response.
func statusError(provider string, status int, body []byte) *Error {
	kind := KindRejected
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status >= 500:
		kind = KindUnavailable
	}
	return &Error{Provider: provider, Kind: kind, Status: status, Err: fmt.Errorf("upstream: %s", truncate(string(body), 256))}
}

// transportError classifies a failure that produced no response. Timeouts,
// resets and DNS failures are all treated as unavailability. The request URL
// is dropped from *url.Error since it may carry credentials.
func transportError(provider string, err error) *Error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = fmt.Errorf("%s request: %w", ue.Op, ue.Err)
	}
	return &Error{Provider: provider, Kind: KindUnavailable, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
