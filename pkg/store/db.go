package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS repos (
	key        TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	rev        TEXT NOT NULL,
	deps       TEXT NOT NULL,
	path       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS envs (
	key        TEXT PRIMARY KEY,
	language   TEXT NOT NULL,
	version    TEXT NOT NULL,
	path       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

// RepoRecord is one prepared repo directory.
type RepoRecord struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rev       string    `json:"rev"`
	Deps      []string  `json:"deps,omitempty"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// EnvRecord is one provisioned environment.
type EnvRecord struct {
	Key       string    `json:"key"`
	Language  string    `json:"language"`
	Version   string    `json:"version"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY inside a process.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init store db: %w", err)
	}
	return db, nil
}

func (s *Store) lookupRepo(ctx context.Context, key string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT path FROM repos WHERE key = ?`, key).Scan(&path)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup repo: %w", err)
	}
	return path, nil
}

func (s *Store) recordRepo(ctx context.Context, r RepoRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO repos (key, url, rev, deps, path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Key, r.URL, r.Rev, strings.Join(r.Deps, "\n"), r.Path, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record repo: %w", err)
	}
	return nil
}

func (s *Store) recordEnv(ctx context.Context, e EnvRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO envs (key, language, version, path, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Key, e.Language, e.Version, e.Path, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record env: %w", err)
	}
	return nil
}

// Repos lists every recorded repo, oldest first.
func (s *Store) Repos(ctx context.Context) ([]RepoRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, url, rev, deps, path, created_at FROM repos ORDER BY created_at, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RepoRecord
	for rows.Next() {
		var (
			r       RepoRecord
			deps    string
			created int64
		)
		if err := rows.Scan(&r.Key, &r.URL, &r.Rev, &deps, &r.Path, &created); err != nil {
			return nil, fmt.Errorf("failed to read repo record: %w", err)
		}
		if deps != "" {
			r.Deps = strings.Split(deps, "\n")
		}
		r.CreatedAt = time.Unix(created, 0)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Envs lists every recorded environment, oldest first.
func (s *Store) Envs(ctx context.Context) ([]EnvRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, language, version, path, created_at FROM envs ORDER BY created_at, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EnvRecord
	for rows.Next() {
		var (
			e       EnvRecord
			created int64
		)
		if err := rows.Scan(&e.Key, &e.Language, &e.Version, &e.Path, &created); err != nil {
			return nil, fmt.Errorf("failed to read env record: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		result = append(result, e)
	}
	return result, rows.Err()
}
