package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/model"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS jobs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	url          TEXT    NOT NULL UNIQUE,
	title        TEXT    NOT NULL,
	company      TEXT    NOT NULL,
	description  TEXT    NOT NULL,
	source       TEXT    NOT NULL,
	skills       TEXT    NOT NULL DEFAULT '[]',
	location     TEXT    NOT NULL,
	is_worldwide INTEGER NOT NULL DEFAULT 0,
	date_posted  INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_date_posted ON jobs (date_posted DESC, id)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_expires_at ON jobs (expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs (source)`,
}

// The DO UPDATE only fires when some field differs, so re-ingesting an
// unchanged posting leaves updated_at alone.
const upsertJob = `
INSERT INTO jobs (
	url, title, company, description, source, skills, location,
	is_worldwide, date_posted, expires_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	title        = excluded.title,
	company      = excluded.company,
	description  = excluded.description,
	source       = excluded.source,
	skills       = excluded.skills,
	location     = excluded.location,
	is_worldwide = excluded.is_worldwide,
	date_posted  = excluded.date_posted,
	expires_at   = excluded.expires_at,
	updated_at   = excluded.updated_at
WHERE jobs.title IS NOT excluded.title
	OR jobs.company IS NOT excluded.company
	OR jobs.description IS NOT excluded.description
	OR jobs.source IS NOT excluded.source
	OR jobs.skills IS NOT excluded.skills
	OR jobs.location IS NOT excluded.location
	OR jobs.is_worldwide IS NOT excluded.is_worldwide
	OR jobs.date_posted IS NOT excluded.date_posted`

const selectColumns = `id, url, title, company, description, source, skills, location,
	is_worldwide, date_posted, expires_at, created_at, updated_at`

// SQLiteStore persists normalized jobs in SQLite, one row per URL.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table and its indexes exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite allows one writer; a single connection serializes upserts.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating jobs schema: %w", err)
		}
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Upsert inserts job, or updates the record with the same URL. Identity and
// created_at survive updates; expires_at follows the new posting date.
func (s *SQLiteStore) Upsert(ctx context.Context, job model.Job) (model.UpsertResult, error) {
	skills, err := json.Marshal(nonNil(job.Skills))
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("encoding skills for %s: %w", job.URL, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("begin upsert %s: %w", job.URL, err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM jobs WHERE url = ?", job.URL).Scan(&id)
	existed := err == nil
	if err != nil && err != sql.ErrNoRows {
		return model.UpsertResult{}, fmt.Errorf("looking up %s: %w", job.URL, err)
	}

	now := s.now().UnixMilli()
	_, err = tx.ExecContext(ctx, upsertJob,
		job.URL, job.Title, job.Company, job.Description, job.Source, string(skills), job.Location,
		boolToInt(job.IsWorldwide), job.DatePosted.UnixMilli(), job.ExpiresAt().UnixMilli(), now, now,
	)
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("upserting %s: %w", job.URL, err)
	}

	if err := tx.Commit(); err != nil {
		return model.UpsertResult{}, fmt.Errorf("commit upsert %s: %w", job.URL, err)
	}
	return model.UpsertResult{Created: !existed}, nil
}

// Find returns one page of unexpired records matching c, newest first.
func (s *SQLiteStore) Find(ctx context.Context, c filter.Criteria) (model.Page, error) {
	c = c.Normalize()
	where, args := c.Where(s.now())

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return model.Page{}, fmt.Errorf("counting jobs: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM jobs WHERE " + where +
		" ORDER BY date_posted DESC, id ASC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.PageSize, c.Offset())...)
	if err != nil {
		return model.Page{}, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	records := make([]model.Record, 0, filter.PageSize)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return model.Page{}, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return model.Page{}, fmt.Errorf("iterating jobs: %w", err)
	}

	return model.Page{
		Records:    records,
		Total:      total,
		Page:       c.Page,
		PageSize:   filter.PageSize,
		TotalPages: filter.TotalPages(total),
	}, nil
}

// Evict deletes records whose retention horizon has passed and returns how
// many were removed.
func (s *SQLiteStore) Evict(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE expires_at <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("evicting expired jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evicting expired jobs: %w", err)
	}
	return n, nil
}

// RunJanitor evicts expired records immediately and then every interval
// until ctx is cancelled.
func (s *SQLiteStore) RunJanitor(ctx context.Context, every time.Duration, logger *slog.Logger) {
	evict := func() {
		n, err := s.Evict(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("janitor eviction failed", "error", err)
			}
			return
		}
		if n > 0 {
			logger.Info("evicted expired jobs", "count", n)
		}
	}

	evict()
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(every):
			evict()
		}
	}
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var (
		r                                     model.Record
		skills                                string
		worldwide                             int
		posted, expires, createdAt, updatedAt int64
	)
	err := row.Scan(&r.ID, &r.URL, &r.Title, &r.Company, &r.Description, &r.Source, &skills, &r.Location,
		&worldwide, &posted, &expires, &createdAt, &updatedAt)
	if err != nil {
		return model.Record{}, fmt.Errorf("scanning job: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &r.Skills); err != nil {
		return model.Record{}, fmt.Errorf("decoding skills for %s: %w", r.URL, err)
	}
	r.Skills = nonNil(r.Skills)
	r.IsWorldwide = worldwide != 0
	r.DatePosted = time.UnixMilli(posted).UTC()
	r.ExpiresAt = time.UnixMilli(expires).UTC()
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
