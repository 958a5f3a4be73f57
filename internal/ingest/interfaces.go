package ingest

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned at store boundaries.
var (
	// ErrDuplicate is returned by Insert when a record with the same
	// source identifier already exists.
	ErrDuplicate = errors.New("record already exists")
	// ErrNotFound is returned when a catalog record cannot be located.
	ErrNotFound = errors.New("record not found")
)

// Source fetches record batches from an external archive and resolves
// download URLs for individual items.
type Source interface {
	Name() string
	FetchBatch(ctx context.Context, page PageOptions) ([]BookMetadata, error)
	DownloadURL(identifier string) string
}

// Classifier assigns taxonomy genres to a book. A nil classification with a
// non-nil error indicates a classification failure; the caller proceeds with
// no genres.
type Classifier interface {
	Classify(ctx context.Context, book BookMetadata) (*GenreClassification, error)
}

// PDFFetcher downloads and validates PDF content.
type PDFFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BlobStore persists validated PDF bytes and returns a retrievable URL.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
}

// CatalogStore persists catalog records and answers existence queries used
// for deduplication.
type CatalogStore interface {
	Exists(ctx context.Context, source, sourceIdentifier string) (bool, error)
	GetBySourceIdentifier(ctx context.Context, source, sourceIdentifier string) (CatalogRecord, error)
	Insert(ctx context.Context, record CatalogRecord) (string, error)
	ListRecords(ctx context.Context) ([]CatalogRecord, error)
	UpdateCategory(ctx context.Context, id, category string) error
}

// JobLogStore records one JobResult per non-dry run.
type JobLogStore interface {
	Append(ctx context.Context, result JobResult) error
	List(ctx context.Context) ([]JobResult, error)
	Get(ctx context.Context, jobID string) (JobResult, error)
}

// AuditSink receives one FilterDecision per filter evaluation.
type AuditSink interface {
	Record(decision FilterDecision)
}

// Publisher pushes run-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
