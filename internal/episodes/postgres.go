// Package episodes persists and caches selfplay episode outcomes:
// durable results in Postgres, live run status in Redis.
package episodes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Episode is one finished selfplay episode.
type Episode struct {
	RunID       string
	Index       int
	Winner      int // player id, -1 for draw
	Ticks       int
	Threshold   int     // handoff tick used this episode
	LatestStart float64 // threshold-distribution mean after decay
	FinishedAt  time.Time
}

// Connect opens a connection pool to the PostgreSQL database.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// Store records episodes in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// EnsureSchema creates the episodes table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS episodes (
			run_id       TEXT NOT NULL,
			idx          INT NOT NULL,
			winner       INT NOT NULL,
			ticks        INT NOT NULL,
			threshold    INT NOT NULL,
			latest_start DOUBLE PRECISION NOT NULL,
			finished_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, idx)
		)`)
	if err != nil {
		return fmt.Errorf("ensure episodes schema: %w", err)
	}
	return nil
}

// Record inserts one finished episode.
func (s *Store) Record(ctx context.Context, e Episode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, idx, winner, ticks, threshold, latest_start, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.RunID, e.Index, e.Winner, e.Ticks, e.Threshold, e.LatestStart, e.FinishedAt)
	if err != nil {
		return fmt.Errorf("record episode %s/%d: %w", e.RunID, e.Index, err)
	}
	return nil
}

// Recent returns the last n episodes of a run, newest first.
func (s *Store) Recent(ctx context.Context, runID string, n int) ([]Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, winner, ticks, threshold, latest_start, finished_at
		FROM episodes WHERE run_id = $1
		ORDER BY idx DESC LIMIT $2`, runID, n)
	if err != nil {
		return nil, fmt.Errorf("query recent episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.RunID, &e.Index, &e.Winner, &e.Ticks, &e.Threshold, &e.LatestStart, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
