package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/model"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	s.now = func() time.Time { return testNow }
	t.Cleanup(func() { s.Close() })
	return s
}

func testJob(url string, posted time.Time) model.Job {
	return model.Job{
		Title:       "Backend Engineer",
		Company:     "Acme",
		Description: "<p>Build APIs in Go.</p>",
		URL:         url,
		Source:      "RemoteOK",
		Skills:      []string{"go", "sql"},
		Location:    "Worldwide",
		IsWorldwide: true,
		DatePosted:  posted,
	}
}

func findAll(t *testing.T, s *SQLiteStore, c filter.Criteria) model.Page {
	t.Helper()
	page, err := s.Find(context.Background(), c)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	return page
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	posted := testNow.Add(-24 * time.Hour)

	res, err := s.Upsert(ctx, testJob("https://x/1", posted))
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	if !res.Created {
		t.Error("expected first upsert to create")
	}
	first := findAll(t, s, filter.Criteria{}).Records[0]

	s.now = func() time.Time { return testNow.Add(time.Hour) }
	changed := testJob("https://x/1", posted.Add(time.Hour))
	changed.Title = "Senior Backend Engineer"
	res, err = s.Upsert(ctx, changed)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if res.Created {
		t.Error("expected second upsert to update, not create")
	}

	page := findAll(t, s, filter.Criteria{})
	if page.Total != 1 {
		t.Fatalf("expected exactly one record per URL, got %d", page.Total)
	}
	got := page.Records[0]
	if got.ID != first.ID {
		t.Errorf("expected identity preserved, got %d want %d", got.ID, first.ID)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("expected created_at preserved, got %v want %v", got.CreatedAt, first.CreatedAt)
	}
	if got.Title != "Senior Backend Engineer" {
		t.Errorf("expected title updated, got %q", got.Title)
	}
	if !got.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("expected updated_at to advance, got %v", got.UpdatedAt)
	}
	if !got.ExpiresAt.Equal(changed.DatePosted.Add(model.RetentionHorizon)) {
		t.Errorf("expected expires_at recomputed, got %v", got.ExpiresAt)
	}
}

func TestUpsertIdenticalIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	j := testJob("https://x/1", testNow.Add(-time.Hour))

	if _, err := s.Upsert(ctx, j); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	before := findAll(t, s, filter.Criteria{}).Records[0]

	s.now = func() time.Time { return testNow.Add(time.Hour) }
	res, err := s.Upsert(ctx, j)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if res.Created {
		t.Error("expected identical upsert not to create")
	}

	after := findAll(t, s, filter.Criteria{}).Records[0]
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("expected updated_at unchanged, got %v want %v", after.UpdatedAt, before.UpdatedAt)
	}
}

func TestUpsertRoundTripsFields(t *testing.T) {
	s := newTestStore(t)
	j := testJob("https://x/rt", testNow.Add(-2*time.Hour).Truncate(time.Millisecond))
	j.Skills = nil

	if _, err := s.Upsert(context.Background(), j); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got := findAll(t, s, filter.Criteria{}).Records[0]

	if got.Title != j.Title || got.Company != j.Company || got.Description != j.Description {
		t.Errorf("text fields differ: %+v", got.Job)
	}
	if got.Source != j.Source || got.Location != j.Location || got.IsWorldwide != j.IsWorldwide {
		t.Errorf("metadata differs: %+v", got.Job)
	}
	if !got.DatePosted.Equal(j.DatePosted) {
		t.Errorf("date_posted differs: %v vs %v", got.DatePosted, j.DatePosted)
	}
	if got.Skills == nil || len(got.Skills) != 0 {
		t.Errorf("expected empty non-nil skills, got %#v", got.Skills)
	}
}

func TestConcurrentUpsertSameURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := testJob("https://x/race", testNow.Add(-time.Hour))
			j.Title = fmt.Sprintf("Title %d", i)
			if _, err := s.Upsert(ctx, j); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Upsert: %v", err)
	}

	if page := findAll(t, s, filter.Criteria{}); page.Total != 1 {
		t.Errorf("expected one record after racing upserts, got %d", page.Total)
	}
}

func TestFindExcludesExpiredAndEvictRemoves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fresh := testJob("https://x/fresh", testNow.Add(-24*time.Hour))
	stale := testJob("https://x/stale", testNow.Add(-31*24*time.Hour))
	for _, j := range []model.Job{fresh, stale} {
		if _, err := s.Upsert(ctx, j); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	page := findAll(t, s, filter.Criteria{})
	if page.Total != 1 || page.Records[0].URL != "https://x/fresh" {
		t.Fatalf("expected only the fresh job, got %+v", page)
	}

	n, err := s.Evict(ctx)
	if err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 evicted, got %d", n)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row left, got %d", count)
	}
}

func TestFindFiltersAndPaginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 25 {
		j := testJob(fmt.Sprintf("https://x/%d", i), testNow.Add(-time.Duration(i)*time.Hour))
		j.Title = fmt.Sprintf("Engineer %d", i)
		if i%5 == 0 {
			j.Title = fmt.Sprintf("React Developer %d", i)
			j.Source = "Remotive"
			j.IsWorldwide = false
		}
		if _, err := s.Upsert(ctx, j); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	page := findAll(t, s, filter.Criteria{Page: 1})
	if page.Total != 25 || page.TotalPages != 2 || len(page.Records) != 20 {
		t.Fatalf("unexpected page 1: total=%d pages=%d len=%d", page.Total, page.TotalPages, len(page.Records))
	}
	if page.Records[0].URL != "https://x/0" {
		t.Errorf("expected newest first, got %s", page.Records[0].URL)
	}

	page2 := findAll(t, s, filter.Criteria{Page: 2})
	if len(page2.Records) != 5 || page2.Page != 2 {
		t.Errorf("expected 5 records on page 2, got %d", len(page2.Records))
	}

	empty := findAll(t, s, filter.Criteria{Page: 9})
	if len(empty.Records) != 0 || empty.Total != 25 {
		t.Errorf("expected empty page past the end, got %d records total=%d", len(empty.Records), empty.Total)
	}

	react := findAll(t, s, filter.Criteria{Skills: []string{"react"}})
	if react.Total != 5 {
		t.Errorf("expected 5 react matches, got %d", react.Total)
	}

	ww := findAll(t, s, filter.Criteria{WorldwideOnly: true})
	if ww.Total != 20 {
		t.Errorf("expected 20 worldwide, got %d", ww.Total)
	}

	both := findAll(t, s, filter.Criteria{Sources: []string{"Remotive"}, WorldwideOnly: true})
	if both.Total != 0 {
		t.Errorf("expected categories to be ANDed, got %d", both.Total)
	}

	text := findAll(t, s, filter.Criteria{Text: "ENGINEER 1"})
	if text.Total != 9 {
		t.Errorf("expected 9 case-insensitive substring matches for 'engineer 1', got %d", text.Total)
	}
}

func TestFindTreatsInputLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plain := testJob("https://x/plain", testNow.Add(-time.Hour))
	plain.Title = "Engineer"
	plain.Description = "no wildcards here"
	percent := testJob("https://x/percent", testNow.Add(-time.Hour))
	percent.Title = "100% remote"
	for _, j := range []model.Job{plain, percent} {
		if _, err := s.Upsert(ctx, j); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	if got := findAll(t, s, filter.Criteria{Text: "%"}).Total; got != 1 {
		t.Errorf("expected %% to match literally once, got %d", got)
	}
	if got := findAll(t, s, filter.Criteria{Text: "c++"}).Total; got != 0 {
		t.Errorf("expected c++ to match nothing, got %d", got)
	}
}

func TestSkillsColumnNotSearched(t *testing.T) {
	s := newTestStore(t)
	j := testJob("https://x/skills", testNow.Add(-time.Hour))
	j.Title = "Engineer"
	j.Description = "Plain text"
	j.Skills = []string{"kubernetes"}
	if _, err := s.Upsert(context.Background(), j); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if got := findAll(t, s, filter.Criteria{Skills: []string{"kubernetes"}}).Total; got != 0 {
		t.Errorf("expected skills filter to ignore the skills column, got %d", got)
	}
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Upsert(context.Background(), testJob("https://x/old", testNow.Add(-40*24*time.Hour))); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected janitor to evict the expired row, got %d rows", count)
	}
}

func TestNopStoreAlwaysCreates(t *testing.T) {
	s := NewNopStore()
	for range 2 {
		res, err := s.Upsert(context.Background(), testJob("https://x/1", testNow))
		if err != nil || !res.Created {
			t.Errorf("expected created=true, got %+v err=%v", res, err)
		}
	}
}
