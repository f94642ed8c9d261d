package netbox

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies a remote failure for retry and reporting
// decisions.
type ErrorKind string

const (
	// ErrKindTransient covers 5xx responses, network errors and
	// timeouts. Retried with backoff.
	ErrKindTransient ErrorKind = "transient"
	// ErrKindRateLimited covers 429 responses. Retried, honoring a
	// Retry-After header when present.
	ErrKindRateLimited ErrorKind = "rate_limited"
	// ErrKindPermanent covers 4xx responses other than 429 and 404.
	// Never retried.
	ErrKindPermanent ErrorKind = "permanent"
	// ErrKindNotFound covers 404 on an object the cache believed to
	// exist. The engine repairs the cache and falls back to create.
	ErrKindNotFound ErrorKind = "not_found"
)

// APIError is the classified result of a failed NetBox call.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	// RetryAfter is the server-requested delay for rate-limited
	// responses; zero when the header was absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("netbox: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("netbox: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure may succeed on a later
// attempt.
func (e *APIError) Retryable() bool {
	return e.Kind == ErrKindTransient || e.Kind == ErrKindRateLimited
}

// transientError wraps a transport-level failure.
func transientError(err error) *APIError {
	return &APIError{Kind: ErrKindTransient, Message: err.Error()}
}

// classifyStatus maps an HTTP error status to an APIError.
func classifyStatus(status int, body string, retryAfter string) *APIError {
	e := &APIError{StatusCode: status, Message: body}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = ErrKindRateLimited
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	case status == http.StatusNotFound:
		e.Kind = ErrKindNotFound
	case status >= 500:
		e.Kind = ErrKindTransient
	default:
		e.Kind = ErrKindPermanent
	}
	return e
}

// IsRetryable reports whether err is a retryable NetBox failure.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// IsNotFound reports whether err is a 404 for a known remote id.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrKindNotFound
}

// IsPermanent reports whether err is a non-retryable rejection.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Kind == ErrKindPermanent || apiErr.Kind == ErrKindNotFound)
}
