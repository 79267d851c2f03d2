package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/remotehub/internal/model"
)

// Policy bounds how a RetryFetcher retries.
type Policy struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled on each later one
}

// RetryFetcher is a decorator that retries transient failures of one job
// board with exponential backoff and jitter.
type RetryFetcher struct {
	inner  model.JobFetcher
	source string
	policy Policy
	logger *slog.Logger
}

// NewRetryFetcher wraps a JobFetcher with retry logic.
func NewRetryFetcher(inner model.JobFetcher, source string, policy Policy, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:  inner,
		source: source,
		policy: policy,
		logger: logger,
	}
}

// FetchJobs attempts to fetch jobs, retrying on transient errors. It gives up
// early when the next delay would outlive the context deadline.
func (f *RetryFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	jobs, err := f.inner.FetchJobs(ctx)
	if err == nil {
		return jobs, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= f.policy.MaxRetries; attempt++ {
		delay := f.backoffDelay(attempt, lastErr)

		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			return nil, fmt.Errorf("%s: next retry in %v exceeds deadline: %w", f.source, delay, lastErr)
		}

		f.logger.Warn("retrying after transient error",
			"source", f.source,
			"attempt", attempt,
			"max_retries", f.policy.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		jobs, err = f.inner.FetchJobs(ctx)
		if err == nil {
			return jobs, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After from the board takes precedence.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := f.policy.BaseDelay << (attempt - 1)

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable reports whether err is a transient failure worth retrying:
// network errors, 429 and 5xx. Context cancellation never is.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	return true
}
