package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harwoodm/atheneum/internal/ingest"
)

func TestStore_AppendListGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	first := ingest.JobResult{
		JobID:     "job-1",
		Status:    ingest.JobStatusCompleted,
		StartedAt: time.Unix(1700000000, 0).UTC(),
		Counters:  ingest.JobCounters{Processed: 3, Added: 3},
	}
	second := ingest.JobResult{
		JobID:    "job-2",
		Status:   ingest.JobStatusFailed,
		Counters: ingest.JobCounters{Processed: 1, Failed: 1},
		Errors:   []ingest.JobError{{Identifier: "x", Error: "boom"}},
	}

	require.NoError(t, s.Append(context.Background(), first))
	require.NoError(t, s.Append(context.Background(), second))

	results, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "job-1", results[0].JobID)

	got, err := s.Get(context.Background(), "job-2")
	require.NoError(t, err)
	require.Equal(t, ingest.JobStatusFailed, got.Status)
	require.Len(t, got.Errors, 1)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ingest.ErrNotFound)
}

func TestStore_FailAppend(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.FailAppend(errors.New("disk full"))
	require.Error(t, s.Append(context.Background(), ingest.JobResult{JobID: "job-1"}))

	results, err := s.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)
}
