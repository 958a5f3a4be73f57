// Package memory provides an in-memory CatalogStore for development/testing.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harwoodm/atheneum/internal/ingest"
)

// Store keeps catalog records in a map, enforcing the same uniqueness
// constraint on source identifiers as the Postgres store.
type Store struct {
	mu      sync.RWMutex
	records map[string]ingest.CatalogRecord
	bySrcID map[string]string // "source\x00identifier" -> record ID
	nextID  int

	failUpdate map[string]error // test hook: per-ID UpdateCategory failures
}

// NewStore constructs a Store.
func NewStore() *Store {
	return &Store{
		records:    make(map[string]ingest.CatalogRecord),
		bySrcID:    make(map[string]string),
		failUpdate: make(map[string]error),
	}
}

func srcKey(source, identifier string) string {
	return source + "\x00" + identifier
}

// Exists reports whether a record with the given source identifier is in the
// catalog.
func (s *Store) Exists(_ context.Context, source, sourceIdentifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bySrcID[srcKey(source, sourceIdentifier)]
	return ok, nil
}

// GetBySourceIdentifier fetches the record for a source identifier.
func (s *Store) GetBySourceIdentifier(_ context.Context, source, sourceIdentifier string) (ingest.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySrcID[srcKey(source, sourceIdentifier)]
	if !ok {
		return ingest.CatalogRecord{}, ingest.ErrNotFound
	}
	return s.records[id], nil
}

// Insert adds a record, deriving its category from the genres. A duplicate
// non-nil source identifier fails with ingest.ErrDuplicate instead of
// overwriting.
func (s *Store) Insert(_ context.Context, record ingest.CatalogRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ""
	if record.SourceIdentifier != nil {
		source := ""
		if record.Source != nil {
			source = *record.Source
		}
		key = srcKey(source, *record.SourceIdentifier)
		if _, exists := s.bySrcID[key]; exists {
			return "", fmt.Errorf("source identifier %q: %w", *record.SourceIdentifier, ingest.ErrDuplicate)
		}
	}

	s.nextID++
	record.ID = fmt.Sprintf("rec-%d", s.nextID)
	record.Category = ingest.DeriveCategory(record.Genres)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.ID] = record
	if key != "" {
		s.bySrcID[key] = record.ID
	}
	return record.ID, nil
}

// ListRecords returns every stored record.
func (s *Store) ListRecords(_ context.Context) ([]ingest.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ingest.CatalogRecord, 0, len(s.records))
	for i := 1; i <= s.nextID; i++ {
		if rec, ok := s.records[fmt.Sprintf("rec-%d", i)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// UpdateCategory sets the category of one record.
func (s *Store) UpdateCategory(_ context.Context, id, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failUpdate[id]; ok {
		return err
	}
	rec, ok := s.records[id]
	if !ok {
		return ingest.ErrNotFound
	}
	rec.Category = category
	s.records[id] = rec
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FailUpdateCategory makes UpdateCategory fail for one record ID (tests).
func (s *Store) FailUpdateCategory(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate[id] = err
}
