package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/remotehub/internal/model"
	"github.com/amishk599/remotehub/internal/registry"
)

// --- Mock/Fake Implementations ---

type fetcherFunc func(ctx context.Context) ([]model.Job, error)

func (f fetcherFunc) FetchJobs(ctx context.Context) ([]model.Job, error) { return f(ctx) }

// MemoryWriter is a URL-keyed writer for testing upsert semantics.
type MemoryWriter struct {
	mu        sync.Mutex
	byURL     map[string]model.Job
	order     []string
	err       error
	failAfter int
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{byURL: make(map[string]model.Job), failAfter: -1}
}

func (w *MemoryWriter) Upsert(_ context.Context, job model.Job) (model.UpsertResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return model.UpsertResult{}, w.err
	}
	if w.failAfter == 0 {
		return model.UpsertResult{}, errors.New("database is locked")
	}
	if w.failAfter > 0 {
		w.failAfter--
	}

	_, exists := w.byURL[job.URL]
	w.byURL[job.URL] = job
	w.order = append(w.order, job.URL)
	return model.UpsertResult{Created: !exists}, nil
}

// RecordingNotifier records which jobs were sent to Notify.
type RecordingNotifier struct {
	Notified []model.Job
	Err      error
}

func (n *RecordingNotifier) Notify(jobs []model.Job) error {
	n.Notified = append(n.Notified, jobs...)
	return n.Err
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func job(source, url string) model.Job {
	return model.Job{
		Title:      "Engineer",
		Company:    "Acme",
		URL:        url,
		Source:     source,
		Skills:     []string{},
		Location:   "Remote",
		DatePosted: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func staticSource(name string, jobs ...model.Job) *registry.Source {
	return registry.NewSource(name, fetcherFunc(func(context.Context) ([]model.Job, error) {
		return jobs, nil
	}), discardLogger())
}

func failingSource(name string) *registry.Source {
	return registry.NewSource(name, fetcherFunc(func(context.Context) ([]model.Job, error) {
		return nil, &model.HTTPError{StatusCode: 503}
	}), discardLogger())
}

// --- Tests ---

func TestRun_AllSourcesAggregated(t *testing.T) {
	reg := registry.New(
		staticSource("A", job("A", "https://a/1"), job("A", "https://a/2")),
		staticSource("B", job("B", "https://b/1")),
	)
	w := NewMemoryWriter()
	n := &RecordingNotifier{}
	o := NewOrchestrator(reg, w, n, time.Second, discardLogger())

	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalJobs != 3 || report.Created != 3 {
		t.Errorf("expected total=3 created=3, got %+v", report)
	}
	if report.PerSource["A"] != 2 || report.PerSource["B"] != 1 {
		t.Errorf("unexpected per-source counts %v", report.PerSource)
	}
	if len(report.SourcesRun) != 2 || report.SourcesRun[0] != "A" || report.SourcesRun[1] != "B" {
		t.Errorf("expected sources [A B], got %v", report.SourcesRun)
	}
	if len(n.Notified) != 3 {
		t.Errorf("expected 3 notified jobs, got %d", len(n.Notified))
	}
}

func TestRun_FailingSourceIsolated(t *testing.T) {
	reg := registry.New(
		failingSource("Down"),
		staticSource("Up", job("Up", "https://up/1")),
	)
	o := NewOrchestrator(reg, NewMemoryWriter(), nil, time.Second, discardLogger())

	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PerSource["Down"] != 0 {
		t.Errorf("expected failing source to contribute 0, got %d", report.PerSource["Down"])
	}
	if report.TotalJobs != 1 {
		t.Errorf("expected total 1, got %d", report.TotalJobs)
	}
	if _, ok := report.PerSource["Down"]; !ok {
		t.Error("expected failing source to appear in per-source counts")
	}
}

func TestRun_RepeatedRunCreatesNothing(t *testing.T) {
	reg := registry.New(staticSource("A", job("A", "https://a/1"), job("A", "https://a/2")))
	w := NewMemoryWriter()
	n := &RecordingNotifier{}
	o := NewOrchestrator(reg, w, n, time.Second, discardLogger())

	if _, err := o.Run(context.Background(), nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	n.Notified = nil

	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Created != 0 || report.TotalJobs != 2 {
		t.Errorf("expected created=0 total=2 on rerun, got %+v", report)
	}
	if len(n.Notified) != 0 {
		t.Errorf("expected no notifications on rerun, got %d", len(n.Notified))
	}
}

func TestRun_DuplicateURLAcrossSources(t *testing.T) {
	reg := registry.New(
		staticSource("A", job("A", "https://shared/1")),
		staticSource("B", job("B", "https://shared/1")),
	)
	w := NewMemoryWriter()
	o := NewOrchestrator(reg, w, nil, time.Second, discardLogger())

	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalJobs != 2 || report.Created != 1 {
		t.Errorf("expected total=2 created=1, got %+v", report)
	}
	if got := w.byURL["https://shared/1"].Source; got != "B" {
		t.Errorf("expected later source in registry order to win, got %s", got)
	}
}

func TestRun_NoValidSources(t *testing.T) {
	fetched := false
	reg := registry.New(registry.NewSource("A", fetcherFunc(func(context.Context) ([]model.Job, error) {
		fetched = true
		return nil, nil
	}), discardLogger()))
	o := NewOrchestrator(reg, NewMemoryWriter(), nil, time.Second, discardLogger())

	_, err := o.Run(context.Background(), []string{"Nope"})
	var nv *model.NoValidSourcesError
	if !errors.As(err, &nv) {
		t.Fatalf("expected NoValidSourcesError, got %v", err)
	}
	if fetched {
		t.Error("expected no fetch before source resolution fails")
	}
}

func TestRun_SelectionSubset(t *testing.T) {
	reg := registry.New(
		staticSource("A", job("A", "https://a/1")),
		staticSource("B", job("B", "https://b/1")),
	)
	o := NewOrchestrator(reg, NewMemoryWriter(), nil, time.Second, discardLogger())

	report, err := o.Run(context.Background(), []string{"B", "Unknown"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.SourcesRun) != 1 || report.SourcesRun[0] != "B" {
		t.Errorf("expected only B to run, got %v", report.SourcesRun)
	}
	if _, ok := report.PerSource["A"]; ok {
		t.Error("expected unselected source to be absent from the report")
	}
}

func TestRun_WriterFailure(t *testing.T) {
	reg := registry.New(staticSource("A", job("A", "https://a/1"), job("A", "https://a/2")))
	w := NewMemoryWriter()
	w.failAfter = 1
	o := NewOrchestrator(reg, w, nil, time.Second, discardLogger())

	_, err := o.Run(context.Background(), nil)
	var ie *model.InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InternalError, got %v", err)
	}
	if len(w.byURL) != 1 {
		t.Errorf("expected earlier upsert to stay committed, got %d records", len(w.byURL))
	}
}

func TestRun_NotifierFailureDoesNotFailRun(t *testing.T) {
	reg := registry.New(staticSource("A", job("A", "https://a/1")))
	n := &RecordingNotifier{Err: errors.New("webhook down")}
	o := NewOrchestrator(reg, NewMemoryWriter(), n, time.Second, discardLogger())

	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("expected created=1, got %d", report.Created)
	}
}

func TestRun_SourcesFetchConcurrently(t *testing.T) {
	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	slow := func(name string) *registry.Source {
		return registry.NewSource(name, fetcherFunc(func(context.Context) ([]model.Job, error) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(50 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return []model.Job{job(name, "https://"+name+"/1")}, nil
		}), discardLogger())
	}

	reg := registry.New(slow("a"), slow("b"), slow("c"))
	o := NewOrchestrator(reg, NewMemoryWriter(), nil, time.Second, discardLogger())

	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak < 2 {
		t.Errorf("expected overlapping fetches, peak concurrency was %d", peak)
	}
	if report.TotalJobs != 3 {
		t.Errorf("expected total 3, got %d", report.TotalJobs)
	}
}

func TestRun_SourceTimeout(t *testing.T) {
	hang := registry.NewSource("Hang", fetcherFunc(func(ctx context.Context) ([]model.Job, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), discardLogger())
	reg := registry.New(hang, staticSource("Fast", job("Fast", "https://fast/1")))
	o := NewOrchestrator(reg, NewMemoryWriter(), nil, 50*time.Millisecond, discardLogger())

	start := time.Now()
	report, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("expected hung source to be cut off by its timeout")
	}
	if report.PerSource["Hang"] != 0 || report.PerSource["Fast"] != 1 {
		t.Errorf("unexpected per-source counts %v", report.PerSource)
	}
}
