package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/remotehub/internal/model"
)

func fixedDelay(d time.Duration) func(string) time.Duration {
	return func(string) time.Duration { return d }
}

func TestWait_SameSource_EnforcesMinDelay(t *testing.T) {
	limiter := NewSourceLimiter(fixedDelay(100 * time.Millisecond))
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "RemoteOK"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "RemoteOK"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentSources_NoCrossBlocking(t *testing.T) {
	limiter := NewSourceLimiter(fixedDelay(200 * time.Millisecond))
	ctx := context.Background()

	if err := limiter.Wait(ctx, "RemoteOK"); err != nil {
		t.Fatalf("RemoteOK wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "Remotive"); err != nil {
		t.Fatalf("Remotive wait: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected Remotive wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_PerSourceOverride(t *testing.T) {
	limiter := NewSourceLimiter(func(source string) time.Duration {
		if source == "Slow" {
			return time.Hour
		}
		return 0
	})
	ctx := context.Background()

	start := time.Now()
	for range 5 {
		if err := limiter.Wait(ctx, "Fast"); err != nil {
			t.Fatalf("Fast wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected unlimited source to never wait, got %v", elapsed)
	}

	if err := limiter.Wait(ctx, "Slow"); err != nil {
		t.Fatalf("first Slow wait: %v", err)
	}
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(short, "Slow"); err == nil {
		t.Error("expected second Slow wait to fail under a short deadline")
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewSourceLimiter(fixedDelay(5 * time.Second))
	ctx := context.Background()

	if err := limiter.Wait(ctx, "RemoteOK"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := limiter.Wait(cancelCtx, "RemoteOK")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Errorf("expected prompt return after cancel, took %v", time.Since(start))
	}
}

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchJobs(_ context.Context) ([]model.Job, error) {
	f.calls++
	return []model.Job{{Title: "Engineer"}}, nil
}

func TestRateLimitedFetcher_DelegatesAfterWait(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, NewSourceLimiter(fixedDelay(0)), "RemoteOK")

	jobs, err := f.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || inner.calls != 1 {
		t.Errorf("expected one delegated call, got calls=%d jobs=%d", inner.calls, len(jobs))
	}
}

func TestRateLimitedFetcher_CancelledSkipsFetch(t *testing.T) {
	inner := &countingFetcher{}
	limiter := NewSourceLimiter(fixedDelay(time.Hour))
	f := NewRateLimitedFetcher(inner, limiter, "RemoteOK")

	if _, err := f.FetchJobs(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchJobs(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected no second delegated call, got %d", inner.calls)
	}
}
