package http

import (
	"fmt"
	"time"
)

// RateLimitError indicates a feed or mirror endpoint throttled the
// request. Carries the status code and the Retry-After duration when
// the server sent one.
type RateLimitError struct {
	// StatusCode is the HTTP status code (429, 403, or 503)
	StatusCode int
	// RetryAfter indicates how long to wait before retrying
	RetryAfter time.Duration
	// IsBotDetection marks a 403 that looks like anti-scraping
	// protection rather than a real permission failure; Invidious
	// mirrors and channel pages both produce these
	IsBotDetection bool
}

// Error returns a string representation of the rate limit error.
func (e *RateLimitError) Error() string {
	if e.IsBotDetection {
		return fmt.Sprintf("bot detection (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// HTTPError indicates a non-2xx response from an RSS feed, mirror, or
// relay. The body is retained so fallback sources can decide whether
// the payload is still parseable.
type HTTPError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the response body
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// Sentinel errors for HTTP operations.
var (
	// ErrNoResponse indicates the endpoint returned nothing at all,
	// which relays sometimes do for blocked targets.
	ErrNoResponse = fmt.Errorf("no response received")

	// ErrRequestFailed indicates the request itself failed (network error).
	ErrRequestFailed = fmt.Errorf("http request failed")
)
