package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
)

// classify maps a go-github error to the domain error taxonomy. resource
// names the thing being fetched, for NotFoundError messages.
func classify(err error, resource string) error {
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		// go-github only produces this when the forbidden response carries
		// rate-limit headers with remaining == 0, so a plain 403 never lands here.
		return &model.RateLimitError{
			Limit: rle.Rate.Limit,
			Used:  rle.Rate.Limit - rle.Rate.Remaining,
			Reset: rle.Rate.Reset.Time,
		}
	}

	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case http.StatusUnauthorized:
			return &model.AuthError{Reason: "token is invalid or expired"}
		case http.StatusNotFound:
			return &model.NotFoundError{Resource: resource}
		default:
			return &model.TransientError{StatusCode: er.Response.StatusCode, Err: err}
		}
	}

	return &model.TransientError{Err: err}
}

// retryable reports whether the classified error is worth another attempt.
// Auth, rate-limit, and not-found errors always propagate immediately; a
// plain 403 is a permissions problem, not a transient condition.
func retryable(err error) bool {
	var te *model.TransientError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode != http.StatusForbidden
}

// withRetry runs op, retrying transient failures up to maxRetries times with
// exponential backoff (baseDelay * 2^attempt, no jitter).
func (c *Client) withRetry(ctx context.Context, resource string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		opErr := op()
		if opErr == nil {
			if attempt > 0 {
				c.logger.Info("api request succeeded after retries", "resource", resource, "retries", attempt)
			}
			return nil
		}

		classified := classify(opErr, resource)
		if !retryable(classified) {
			return backoff.Permanent(classified)
		}

		attempt++
		c.logger.Warn("api request failed, will retry",
			"resource", resource,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"error", classified,
		)
		return classified
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx))

	if err != nil {
		var te *model.TransientError
		if errors.As(err, &te) && attempt >= c.maxRetries {
			return fmt.Errorf("fetching %s failed after %d attempts: %w", resource, c.maxRetries+1, err)
		}
	}
	return err
}
