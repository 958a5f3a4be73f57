// Package ingest defines core types shared across the ingestion pipeline.
package ingest

import (
	"time"
)

// BookMetadata is a normalized bibliographic record parsed from the source
// archive. Immutable once parsed.
type BookMetadata struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Creator     string `json:"creator"`
	Date        string `json:"date,omitempty"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
}

// FilterConfig is the allow-list configuration snapshot used for one run.
// An empty allow-list under an enabled filter means "allow all".
type FilterConfig struct {
	AllowedGenres      []string `json:"allowed_genres"`
	AllowedAuthors     []string `json:"allowed_authors"`
	EnableGenreFilter  bool     `json:"enable_genre_filter"`
	EnableAuthorFilter bool     `json:"enable_author_filter"`
}

// GenreClassification holds 1-3 taxonomy genres plus an optional subgenre.
type GenreClassification struct {
	Genres   []string `json:"genres"`
	Subgenre string   `json:"subgenre,omitempty"`
}

// FilterResult enumerates the outcome of one filter evaluation.
type FilterResult string

// Filter evaluation outcomes recorded in the audit log.
const (
	FilterPassed         FilterResult = "passed"
	FilterRejectedGenre  FilterResult = "filtered_genre"
	FilterRejectedAuthor FilterResult = "filtered_author"
)

// FilterDecision is an append-only audit record produced for every filter
// evaluation, pass or fail.
type FilterDecision struct {
	Identifier string       `json:"identifier"`
	Title      string       `json:"title"`
	Author     string       `json:"author"`
	Genres     []string     `json:"genres,omitempty"`
	Result     FilterResult `json:"result"`
	Reason     string       `json:"reason"`
	Timestamp  time.Time    `json:"timestamp"`
}

// CatalogRecord is the persisted catalog entity. Source, SourceIdentifier and
// PDFURL are nil for manually curated records; SourceIdentifier is unique
// among non-nil values and serves as the idempotency backstop.
type CatalogRecord struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	Source           *string   `json:"source"`
	SourceIdentifier *string   `json:"source_identifier"`
	PDFURL           *string   `json:"pdf_url"`
	Language         *string   `json:"language"`
	Genres           []string  `json:"genres"`
	Subgenre         *string   `json:"subgenre"`
	Category         string    `json:"category"`
	CreatedAt        time.Time `json:"created_at"`
}

// Ingested reports whether the record originated from the ingestion pipeline
// rather than manual curation.
func (r CatalogRecord) Ingested() bool {
	return r.SourceIdentifier != nil
}

// JobStatus represents the final state of an ingestion run.
type JobStatus string

// Job status values persisted in the job log.
const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusPartial   JobStatus = "partial"
	JobStatusFailed    JobStatus = "failed"
)

// JobError attributes a single failure to a source identifier.
type JobError struct {
	Identifier string    `json:"identifier"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
}

// JobCounters tracks per-run statistics. Added + Skipped + Filtered + Failed
// always equals Processed.
type JobCounters struct {
	Processed        int `json:"processed"`
	Added            int `json:"added"`
	Skipped          int `json:"skipped"`
	Filtered         int `json:"filtered"`
	FilteredByGenre  int `json:"filtered_by_genre"`
	FilteredByAuthor int `json:"filtered_by_author"`
	Failed           int `json:"failed"`
}

// JobResult is the full outcome of one ingestion run.
type JobResult struct {
	JobID       string      `json:"job_id"`
	Status      JobStatus   `json:"status"`
	DryRun      bool        `json:"dry_run"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
	Counters    JobCounters `json:"counters"`
	Errors      []JobError  `json:"errors,omitempty"`
}

// PageOptions selects one page of source records.
type PageOptions struct {
	Page     int
	PageSize int
}

// UncategorizedCategory is the category assigned to records without genres.
const UncategorizedCategory = "Uncategorized"

// DeriveCategory computes the display category from a genre list: the first
// genre when present, otherwise "Uncategorized".
func DeriveCategory(genres []string) string {
	if len(genres) == 0 {
		return UncategorizedCategory
	}
	return genres[0]
}
