package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Job is a stored listing. Link is the unique candidate key; ingestion
// normalizes it before insert and the duplicate collapser rewrites it to
// normalized form for kept records.
type Job struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Link        string    `json:"link"`
	Snippet     string    `json:"snippet,omitempty"`
	Source      string    `json:"source"`
	SearchQuery string    `json:"searchQuery,omitempty"`
	Applied     bool      `json:"applied"`
	CreatedAt   time.Time `json:"createdAt"`
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL UNIQUE,
  snippet TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  search_query TEXT NOT NULL DEFAULT '',
  applied INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source);
`); err != nil {
		return err
	}
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertJobIgnore inserts the job unless a row with the same link already
// exists. Returns whether a new row was added.
func InsertJobIgnore(ctx context.Context, db *sql.DB, j Job) (added bool, err error) {
	if strings.TrimSpace(j.Link) == "" {
		return false, fmt.Errorf("insert job: missing link")
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs(title, company, link, snippet, source, search_query, created_at)
VALUES(?,?,?,?,?,?,?);`,
		j.Title, j.Company, j.Link, j.Snippet, j.Source, j.SearchQuery,
		j.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func ListAll(ctx context.Context, db *sql.DB) ([]Job, error) {
	return queryJobs(ctx, db, `
SELECT id, title, company, link, snippet, source, search_query, applied, created_at
FROM jobs
ORDER BY created_at DESC;`)
}

// ListBySource returns jobs whose source tag contains the given fragment
// (e.g. "myworkdayjobs"). This is what the browser-validator worker pulls.
func ListBySource(ctx context.Context, db *sql.DB, fragment string) ([]Job, error) {
	return queryJobs(ctx, db, `
SELECT id, title, company, link, snippet, source, search_query, applied, created_at
FROM jobs
WHERE source LIKE ?
ORDER BY created_at DESC;`, "%"+fragment+"%")
}

func queryJobs(ctx context.Context, db *sql.DB, query string, args ...any) ([]Job, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		var createdStr string
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Company, &j.Link, &j.Snippet,
			&j.Source, &j.SearchQuery, &j.Applied, &createdStr,
		); err != nil {
			return nil, err
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		out = append(out, j)
	}
	return out, rows.Err()
}

// DeleteByIDs removes the given jobs in one statement and reports how many
// rows went away.
func DeleteByIDs(ctx context.Context, db *sql.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM jobs WHERE id IN (%s);`, placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func DeleteJob(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	return err
}

// UpdateLink rewrites a kept record's link to its normalized form after
// duplicate collapsing.
func UpdateLink(ctx context.Context, db *sql.DB, id int64, link string) error {
	_, err := db.ExecContext(ctx, `UPDATE jobs SET link = ? WHERE id = ?;`, link, id)
	return err
}

func SetApplied(ctx context.Context, db *sql.DB, id int64, applied bool) error {
	_, err := db.ExecContext(ctx, `UPDATE jobs SET applied = ? WHERE id = ?;`, applied, id)
	return err
}
