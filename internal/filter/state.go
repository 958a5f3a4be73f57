package filter

import (
	"sync"

	"github.com/harwoodm/atheneum/internal/ingest"
)

// State holds the mutable runtime filter configuration shared between the
// admin API and ingestion runs. Runs read a snapshot, so an update never
// changes the rules of a run already in flight.
type State struct {
	mu  sync.RWMutex
	cfg ingest.FilterConfig
}

// NewState seeds a State with an initial configuration.
func NewState(cfg ingest.FilterConfig) *State {
	return &State{cfg: cfg}
}

// Snapshot returns a deep copy of the current configuration.
func (s *State) Snapshot() ingest.FilterConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ingest.FilterConfig{
		AllowedGenres:      append([]string(nil), s.cfg.AllowedGenres...),
		AllowedAuthors:     append([]string(nil), s.cfg.AllowedAuthors...),
		EnableGenreFilter:  s.cfg.EnableGenreFilter,
		EnableAuthorFilter: s.cfg.EnableAuthorFilter,
	}
}

// Set replaces the configuration.
func (s *State) Set(cfg ingest.FilterConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = ingest.FilterConfig{
		AllowedGenres:      append([]string(nil), cfg.AllowedGenres...),
		AllowedAuthors:     append([]string(nil), cfg.AllowedAuthors...),
		EnableGenreFilter:  cfg.EnableGenreFilter,
		EnableAuthorFilter: cfg.EnableAuthorFilter,
	}
}
