// Package joblog provides persistence and aggregation for ingestion run
// results.
package joblog

import (
	"github.com/harwoodm/atheneum/internal/ingest"
)

// Stats aggregates counters across every logged run. Served by the admin
// filter statistics endpoint.
type Stats struct {
	Jobs             int `json:"jobs"`
	Processed        int `json:"processed"`
	Added            int `json:"added"`
	Skipped          int `json:"skipped"`
	Filtered         int `json:"filtered"`
	FilteredByGenre  int `json:"filtered_by_genre"`
	FilteredByAuthor int `json:"filtered_by_author"`
	Failed           int `json:"failed"`
}

// AggregateStats sums counters over the given job results.
func AggregateStats(results []ingest.JobResult) Stats {
	var s Stats
	for _, r := range results {
		s.Jobs++
		s.Processed += r.Counters.Processed
		s.Added += r.Counters.Added
		s.Skipped += r.Counters.Skipped
		s.Filtered += r.Counters.Filtered
		s.FilteredByGenre += r.Counters.FilteredByGenre
		s.FilteredByAuthor += r.Counters.FilteredByAuthor
		s.Failed += r.Counters.Failed
	}
	return s
}
