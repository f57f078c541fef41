package model

import (
	"fmt"
	"time"
)

// AuthError indicates a bad or expired credential. Fatal; never retried.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github authentication failed: %s", e.Reason)
}

// RateLimitError indicates the API quota is exhausted. Fatal at the point of
// occurrence; carries the reset time so callers can surface it.
type RateLimitError struct {
	Limit int
	Used  int
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github rate limit exceeded (%d/%d used), resets at %s",
		e.Used, e.Limit, e.Reset.Format(time.RFC3339))
}

// NotFoundError indicates a 404 on a per-PR sub-resource. Callers recover
// this locally as empty data since PRs can be deleted mid-run.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// TransientError wraps a network failure or unexpected API status. Retried
// with backoff; fatal once retries are exhausted.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("github api request failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("github api request failed: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ValidationError indicates malformed input parameters. Raised before any
// network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
