// Package postgres provides the Postgres-backed catalog store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harwoodm/atheneum/internal/ingest"
)

const uniqueViolationCode = "23505"

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// poolConn is the subset of pgxpool.Pool the store uses; pgxmock implements
// it for tests.
type poolConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists catalog records in the books table. Expected schema:
//
//	CREATE TABLE books (
//		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//		title TEXT NOT NULL,
//		author TEXT NOT NULL DEFAULT '',
//		source TEXT,
//		source_identifier TEXT UNIQUE,
//		pdf_url TEXT,
//		language TEXT,
//		genres TEXT[],
//		subgenre TEXT,
//		category TEXT NOT NULL,
//		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
// The unique constraint on source_identifier is the idempotency backstop:
// a duplicate insert fails cleanly instead of overwriting.
type Store struct {
	pool poolConn
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(pool poolConn) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Exists reports whether an ingested record with this source identifier is
// already in the catalog.
func (s *Store) Exists(ctx context.Context, source, sourceIdentifier string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM books WHERE source = $1 AND source_identifier = $2)`,
		source, sourceIdentifier,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return exists, nil
}

// GetBySourceIdentifier fetches the catalog record for a source identifier.
func (s *Store) GetBySourceIdentifier(ctx context.Context, source, sourceIdentifier string) (ingest.CatalogRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, author, source, source_identifier, pdf_url, language, genres, subgenre, category, created_at
		 FROM books WHERE source = $1 AND source_identifier = $2`,
		source, sourceIdentifier,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ingest.CatalogRecord{}, ingest.ErrNotFound
	}
	if err != nil {
		return ingest.CatalogRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Insert adds a record, always deriving the category from the genres. A
// unique violation on source_identifier maps to ingest.ErrDuplicate.
func (s *Store) Insert(ctx context.Context, record ingest.CatalogRecord) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO books (title, author, source, source_identifier, pdf_url, language, genres, subgenre, category)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		record.Title,
		record.Author,
		record.Source,
		record.SourceIdentifier,
		record.PDFURL,
		record.Language,
		record.Genres,
		record.Subgenre,
		ingest.DeriveCategory(record.Genres),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return "", fmt.Errorf("insert book: %w", ingest.ErrDuplicate)
		}
		return "", fmt.Errorf("insert book: %w", err)
	}
	return id, nil
}

// ListRecords returns every catalog record, ingested and manually curated.
func (s *Store) ListRecords(ctx context.Context) ([]ingest.CatalogRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, author, source, source_identifier, pdf_url, language, genres, subgenre, category, created_at
		 FROM books ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []ingest.CatalogRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// UpdateCategory sets the category of one record.
func (s *Store) UpdateCategory(ctx context.Context, id, category string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE books SET category = $2 WHERE id = $1`,
		id, category,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (ingest.CatalogRecord, error) {
	var rec ingest.CatalogRecord
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Author,
		&rec.Source,
		&rec.SourceIdentifier,
		&rec.PDFURL,
		&rec.Language,
		&rec.Genres,
		&rec.Subgenre,
		&rec.Category,
		&rec.CreatedAt,
	)
	return rec, err
}
