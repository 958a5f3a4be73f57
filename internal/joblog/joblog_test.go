package joblog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harwoodm/atheneum/internal/ingest"
)

func TestAggregateStats(t *testing.T) {
	t.Parallel()

	results := []ingest.JobResult{
		{
			JobID:  "job-1",
			Status: ingest.JobStatusCompleted,
			Counters: ingest.JobCounters{
				Processed: 10, Added: 6, Skipped: 2,
				Filtered: 2, FilteredByGenre: 1, FilteredByAuthor: 1,
			},
		},
		{
			JobID:  "job-2",
			Status: ingest.JobStatusPartial,
			Counters: ingest.JobCounters{
				Processed: 5, Added: 2, Skipped: 1,
				Filtered: 1, FilteredByGenre: 1, Failed: 1,
			},
		},
	}

	stats := AggregateStats(results)
	require.Equal(t, Stats{
		Jobs:             2,
		Processed:        15,
		Added:            8,
		Skipped:          3,
		Filtered:         3,
		FilteredByGenre:  2,
		FilteredByAuthor: 1,
		Failed:           1,
	}, stats)
}

func TestAggregateStats_Empty(t *testing.T) {
	t.Parallel()
	require.Equal(t, Stats{}, AggregateStats(nil))
}
