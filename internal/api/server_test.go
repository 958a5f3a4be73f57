package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/filter"
	"github.com/harwoodm/atheneum/internal/ingest"
	joblogmem "github.com/harwoodm/atheneum/internal/joblog/memory"
)

func newTestServer(t *testing.T) (*Server, *filter.State, *joblogmem.Store) {
	t.Helper()
	state := filter.NewState(ingest.FilterConfig{
		AllowedGenres:     []string{"Fiction"},
		EnableGenreFilter: true,
	})
	jobLog := joblogmem.NewStore()
	return NewServer(state, jobLog, zap.NewNop()), state, jobLog
}

func TestGetFilterConfig(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/filters/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got ingest.FilterConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, []string{"Fiction"}, got.AllowedGenres)
	require.True(t, got.EnableGenreFilter)
}

func TestPutFilterConfig(t *testing.T) {
	t.Parallel()

	srv, state, _ := newTestServer(t)
	body := `{"allowed_genres":["poetry","Science Fiction"],"allowed_authors":["Melville"],"enable_genre_filter":true,"enable_author_filter":true}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/filters/config", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	cfg := state.Snapshot()
	require.Equal(t, []string{"Poetry", "Science Fiction"}, cfg.AllowedGenres)
	require.Equal(t, []string{"Melville"}, cfg.AllowedAuthors)
	require.True(t, cfg.EnableGenreFilter)
	require.True(t, cfg.EnableAuthorFilter)
}

func TestPutFilterConfig_RejectsUnknownGenre(t *testing.T) {
	t.Parallel()

	srv, state, _ := newTestServer(t)
	body := `{"allowed_genres":["Cooking"],"enable_genre_filter":true}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/filters/config", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Cooking")

	// The stored configuration is untouched.
	require.Equal(t, []string{"Fiction"}, state.Snapshot().AllowedGenres)
}

func TestPutFilterConfig_RejectsStringBoolean(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	body := `{"enable_genre_filter":"true"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/filters/config", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutFilterConfig_RejectsUnknownField(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	body := `{"allowed_genre":["Fiction"]}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/filters/config", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterStats(t *testing.T) {
	t.Parallel()

	srv, _, jobLog := newTestServer(t)
	require.NoError(t, jobLog.Append(context.Background(), ingest.JobResult{
		JobID:  "job-1",
		Status: ingest.JobStatusCompleted,
		Counters: ingest.JobCounters{
			Processed: 5, Added: 2, Skipped: 1,
			Filtered: 2, FilteredByGenre: 1, FilteredByAuthor: 1,
		},
	}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/filters/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats["jobs"])
	require.Equal(t, 5, stats["processed"])
	require.Equal(t, 2, stats["filtered"])
}

func TestGetJob(t *testing.T) {
	t.Parallel()

	srv, _, jobLog := newTestServer(t)
	started := time.Unix(1700000000, 0).UTC()
	require.NoError(t, jobLog.Append(context.Background(), ingest.JobResult{
		JobID:     "job-abc",
		Status:    ingest.JobStatusPartial,
		StartedAt: started,
	}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs/job-abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got ingest.JobResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, ingest.JobStatusPartial, got.Status)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs_EmptyIsArray(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}
