package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/remotehub/internal/model"
)

// SourceLimiter spaces successive requests to the same job board. Each board
// gets its own token bucket, so one board's traffic never delays another.
type SourceLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delayFor func(source string) time.Duration
}

// NewSourceLimiter creates a limiter that allows one request per delayFor(source)
// for each source. A zero or negative delay leaves that source unlimited.
func NewSourceLimiter(delayFor func(source string) time.Duration) *SourceLimiter {
	return &SourceLimiter{
		limiters: make(map[string]*rate.Limiter),
		delayFor: delayFor,
	}
}

func (l *SourceLimiter) limiterFor(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[source]; ok {
		return lim
	}
	limit := rate.Inf
	if d := l.delayFor(source); d > 0 {
		limit = rate.Every(d)
	}
	lim := rate.NewLimiter(limit, 1)
	l.limiters[source] = lim
	return lim
}

// Wait blocks until the given source may be called again.
// Returns an error if the context is cancelled while waiting.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	if err := l.limiterFor(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// RateLimitedFetcher is a decorator that waits for the source's limiter
// before delegating to the wrapped JobFetcher.
type RateLimitedFetcher struct {
	inner   model.JobFetcher
	limiter *SourceLimiter
	source  string
}

// NewRateLimitedFetcher wraps a JobFetcher with per-source rate limiting.
// Every fetcher in the process should share one SourceLimiter.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *SourceLimiter, source string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		source:  source,
	}
}

// FetchJobs waits for the rate limiter to allow a request, then delegates to
// the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if err := f.limiter.Wait(ctx, f.source); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
