package twitter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError is returned for 429 responses. A zero Reset or RetryAfter
// and a Remaining of -1 mean the header was absent.
type RateLimitError struct {
	Reset      time.Time
	Remaining  int
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited until %s", e.Reset.UTC().Format(time.RFC3339))
}

// ServerError is returned for 5xx responses.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d, body: %s", e.StatusCode, e.Body)
}

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error: status %d: %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("API error: status %d, body: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// newRateLimitError reads the x-rate-limit-* and Retry-After headers.
func newRateLimitError(h http.Header, body string) *RateLimitError {
	e := &RateLimitError{Remaining: -1, Body: body}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			e.Reset = time.Unix(sec, 0)
		}
	}
	if v := h.Get("x-rate-limit-remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			e.Remaining = n
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			e.RetryAfter = time.Duration(sec) * time.Second
		} else if at, err := http.ParseTime(v); err == nil {
			e.RetryAfter = time.Until(at)
		}
	}
	return e
}
