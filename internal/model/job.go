package model

import (
	"context"
	"time"
)

// RetentionHorizon is how long a posting stays in the store, measured from
// its original posting date.
const RetentionHorizon = 30 * 24 * time.Hour

// Job is the normalized representation of a posting from any board.
type Job struct {
	Title       string    // required, trimmed
	Company     string    // "Unknown" when the source gives no separate company
	Description string    // raw source markup, never sanitized
	URL         string    // absolute apply link, also the dedup key
	Source      string    // registered adapter name
	Skills      []string  // source order, may be empty
	Location    string    // "Remote" when the source gives nothing
	IsWorldwide bool      // keyword heuristic over location/title/description
	DatePosted  time.Time // original posting date
}

// ExpiresAt returns the retention deadline for the posting.
func (j Job) ExpiresAt() time.Time {
	return j.DatePosted.Add(RetentionHorizon)
}

// Record is a Job as persisted by the store.
type Record struct {
	ID        int64
	Job
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// UpsertResult reports whether an upsert inserted a new record.
type UpsertResult struct {
	Created bool
}

// Report summarizes one ingestion run.
type Report struct {
	TotalJobs  int            `json:"totalJobs"`
	Created    int            `json:"created"`
	PerSource  map[string]int `json:"perSource"`
	SourcesRun []string       `json:"sources"`
}

// Page is one page of query results.
type Page struct {
	Records    []Record
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// JobFetcher fetches and normalizes postings from one source.
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Job, error)
}

// JobWriter persists normalized jobs, keyed by URL.
type JobWriter interface {
	Upsert(ctx context.Context, job Job) (UpsertResult, error)
}

// Notifier sends notifications for newly stored postings.
type Notifier interface {
	Notify(jobs []Job) error
}
