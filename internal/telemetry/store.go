// Package telemetry persists one audit row per completed request: which
// model served it, whether it streamed, how long it took, and whether a
// quota refresh was needed. It is a side channel for operators, never on
// the request-serving critical path's success or failure.
package telemetry

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/halcyon-ai/relaygw/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RequestRecord is one row of the requests table.
type RequestRecord struct {
	ID             string
	Model          string
	Streamed       bool
	DurationMS     int64
	QuotaRefreshed bool
	ErrorKind      string
	CreatedAt      time.Time
}

// Store wraps a single-connection SQLite database. Like the teacher's Store,
// writes are serialized through one connection; SQLite does not tolerate
// concurrent writers well.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite file at path and runs pending goose
// migrations before returning.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("telemetry: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("telemetry: ping database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("telemetry: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("telemetry: run migrations: %w", err)
	}

	logging.Infof("telemetry store initialized at %s", path)
	return &Store{db: db}, nil
}

// Record inserts one audit row. Failures are logged, not returned, so a
// telemetry outage never fails the request it is recording.
func (s *Store) Record(ctx context.Context, r RequestRecord) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (id, model, streamed, duration_ms, quota_refreshed, error_kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Model, r.Streamed, r.DurationMS, r.QuotaRefreshed, nullIfEmpty(r.ErrorKind), r.CreatedAt,
	)
	if err != nil {
		logging.Warnf("telemetry: failed to record request %s: %v", r.ID, err)
	}
}

// Recent returns the last n requests, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]RequestRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, streamed, duration_ms, quota_refreshed, COALESCE(error_kind, ''), created_at
		 FROM requests ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RequestRecord
	for rows.Next() {
		var r RequestRecord
		if err := rows.Scan(&r.ID, &r.Model, &r.Streamed, &r.DurationMS, &r.QuotaRefreshed, &r.ErrorKind, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
