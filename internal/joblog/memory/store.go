// Package memory provides an in-memory JobLogStore for development/testing.
package memory

import (
	"context"
	"sync"

	"github.com/harwoodm/atheneum/internal/ingest"
)

// Store keeps job results in memory, in append order.
type Store struct {
	mu      sync.RWMutex
	results []ingest.JobResult

	appendErr error // test hook
}

// NewStore constructs a Store.
func NewStore() *Store {
	return &Store{}
}

// Append logs one run result.
func (s *Store) Append(_ context.Context, result ingest.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.results = append(s.results, result)
	return nil
}

// List returns every logged result in append order.
func (s *Store) List(_ context.Context) ([]ingest.JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ingest.JobResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

// Get fetches one result by job ID.
func (s *Store) Get(_ context.Context, jobID string) (ingest.JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.JobID == jobID {
			return r, nil
		}
	}
	return ingest.JobResult{}, ingest.ErrNotFound
}

// FailAppend makes Append fail with err (tests).
func (s *Store) FailAppend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}
