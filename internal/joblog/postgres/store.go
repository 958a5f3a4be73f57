// Package postgres provides the Postgres-backed job log store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harwoodm/atheneum/internal/ingest"
)

// poolConn is the subset of pgxpool.Pool the store uses; pgxmock implements
// it for tests.
type poolConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists run results in the ingest_jobs table. Expected schema:
//
//	CREATE TABLE ingest_jobs (
//		job_id UUID PRIMARY KEY,
//		status TEXT NOT NULL,
//		dry_run BOOLEAN NOT NULL,
//		started_at TIMESTAMPTZ NOT NULL,
//		completed_at TIMESTAMPTZ NOT NULL,
//		counters JSONB NOT NULL,
//		errors JSONB
//	);
type Store struct {
	pool poolConn
}

// New creates a job log store on an existing pgx pool.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from any pool implementation (primarily for
// testing).
func NewWithPool(pool poolConn) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Append logs one run result.
func (s *Store) Append(ctx context.Context, result ingest.JobResult) error {
	counters, err := json.Marshal(result.Counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	jobErrors, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ingest_jobs (job_id, status, dry_run, started_at, completed_at, counters, errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.JobID,
		string(result.Status),
		result.DryRun,
		result.StartedAt,
		result.CompletedAt,
		counters,
		jobErrors,
	)
	if err != nil {
		return fmt.Errorf("insert job log: %w", err)
	}
	return nil
}

// List returns every logged result, oldest first.
func (s *Store) List(ctx context.Context) ([]ingest.JobResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id, status, dry_run, started_at, completed_at, counters, errors
		 FROM ingest_jobs ORDER BY started_at, job_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list job logs: %w", err)
	}
	defer rows.Close()

	var out []ingest.JobResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job log: %w", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job logs: %w", err)
	}
	return out, nil
}

// Get fetches one result by job ID.
func (s *Store) Get(ctx context.Context, jobID string) (ingest.JobResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT job_id, status, dry_run, started_at, completed_at, counters, errors
		 FROM ingest_jobs WHERE job_id = $1`,
		jobID,
	)
	result, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ingest.JobResult{}, ingest.ErrNotFound
	}
	if err != nil {
		return ingest.JobResult{}, fmt.Errorf("get job log: %w", err)
	}
	return result, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func scanResult(row pgx.Row) (ingest.JobResult, error) {
	var (
		result    ingest.JobResult
		status    string
		counters  []byte
		jobErrors []byte
	)
	err := row.Scan(
		&result.JobID,
		&status,
		&result.DryRun,
		&result.StartedAt,
		&result.CompletedAt,
		&counters,
		&jobErrors,
	)
	if err != nil {
		return ingest.JobResult{}, err
	}
	result.Status = ingest.JobStatus(status)
	if err := json.Unmarshal(counters, &result.Counters); err != nil {
		return ingest.JobResult{}, fmt.Errorf("unmarshal counters: %w", err)
	}
	if len(jobErrors) > 0 {
		if err := json.Unmarshal(jobErrors, &result.Errors); err != nil {
			return ingest.JobResult{}, fmt.Errorf("unmarshal errors: %w", err)
		}
	}
	return result, nil
}
