package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harwoodm/atheneum/internal/ingest"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestEngine_GenreFilter(t *testing.T) {
	t.Parallel()

	cfg := ingest.FilterConfig{
		AllowedGenres:     []string{"Fiction", "History"},
		EnableGenreFilter: true,
	}

	tests := []struct {
		name   string
		genres []string
		passed bool
		result ingest.FilterResult
		reason string
	}{
		{
			name:   "intersecting genre passes",
			genres: []string{"Science", "Fiction"},
			passed: true,
			result: ingest.FilterPassed,
			reason: PassedReason,
		},
		{
			name:   "case-insensitive match passes",
			genres: []string{"fiction"},
			passed: true,
			result: ingest.FilterPassed,
			reason: PassedReason,
		},
		{
			name:   "no intersection fails",
			genres: []string{"Science"},
			result: ingest.FilterRejectedGenre,
			reason: "Genres [Science] do not match allowed genres [Fiction, History]",
		},
		{
			name:   "nil genres fail",
			result: ingest.FilterRejectedGenre,
			reason: "Book has no genres",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New(nil, fixedNow)
			got := e.Apply(Candidate{Identifier: "id", Genres: tt.genres}, cfg)
			require.Equal(t, tt.passed, got.Passed)
			require.Equal(t, tt.result, got.Result)
			require.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestEngine_GenreFilterDisabledOrEmptyAllowsAll(t *testing.T) {
	t.Parallel()

	e := New(nil, fixedNow)

	got := e.Apply(Candidate{Identifier: "id"}, ingest.FilterConfig{
		AllowedGenres:     []string{"Fiction"},
		EnableGenreFilter: false,
	})
	require.True(t, got.Passed)

	got = e.Apply(Candidate{Identifier: "id"}, ingest.FilterConfig{
		EnableGenreFilter: true,
	})
	require.True(t, got.Passed)
}

func TestEngine_AuthorFilter(t *testing.T) {
	t.Parallel()

	cfg := ingest.FilterConfig{
		AllowedAuthors:     []string{" Twain ", "Austen"},
		EnableAuthorFilter: true,
	}
	e := New(nil, fixedNow)

	got := e.Apply(Candidate{Identifier: "id", Author: "Mark Twain"}, cfg)
	require.True(t, got.Passed)

	// Substring match is case-insensitive and trimmed.
	got = e.Apply(Candidate{Identifier: "id", Author: "TWAIN, MARK"}, cfg)
	require.True(t, got.Passed)

	got = e.Apply(Candidate{Identifier: "id", Author: "Charles Dickens"}, cfg)
	require.False(t, got.Passed)
	require.Equal(t, ingest.FilterRejectedAuthor, got.Result)
	require.Equal(t, `Author "Charles Dickens" does not match any allowed author`, got.Reason)

	got = e.Apply(Candidate{Identifier: "id", Author: "   "}, cfg)
	require.False(t, got.Passed)
	require.Equal(t, "Book has no author", got.Reason)
}

func TestEngine_AuthorFilterDisabledOrEmptyAllowsAll(t *testing.T) {
	t.Parallel()

	e := New(nil, fixedNow)

	got := e.Apply(Candidate{Identifier: "id"}, ingest.FilterConfig{
		AllowedAuthors:     []string{"Twain"},
		EnableAuthorFilter: false,
	})
	require.True(t, got.Passed)

	got = e.Apply(Candidate{Identifier: "id"}, ingest.FilterConfig{
		EnableAuthorFilter: true,
	})
	require.True(t, got.Passed)
}

func TestEngine_GenreFailureReportedWhenBothWouldFail(t *testing.T) {
	t.Parallel()

	cfg := ingest.FilterConfig{
		AllowedGenres:      []string{"Fiction"},
		AllowedAuthors:     []string{"Twain"},
		EnableGenreFilter:  true,
		EnableAuthorFilter: true,
	}
	e := New(nil, fixedNow)

	got := e.Apply(Candidate{Identifier: "id", Author: "Dickens", Genres: []string{"Science"}}, cfg)
	require.False(t, got.Passed)
	require.Equal(t, ingest.FilterRejectedGenre, got.Result)
}

func TestEngine_BothFiltersMustPass(t *testing.T) {
	t.Parallel()

	cfg := ingest.FilterConfig{
		AllowedGenres:      []string{"Fiction"},
		AllowedAuthors:     []string{"Twain"},
		EnableGenreFilter:  true,
		EnableAuthorFilter: true,
	}
	e := New(nil, fixedNow)

	got := e.Apply(Candidate{Identifier: "id", Author: "Mark Twain", Genres: []string{"Fiction"}}, cfg)
	require.True(t, got.Passed)

	got = e.Apply(Candidate{Identifier: "id", Author: "Dickens", Genres: []string{"Fiction"}}, cfg)
	require.False(t, got.Passed)
	require.Equal(t, ingest.FilterRejectedAuthor, got.Result)
}

func TestEngine_EmitsOneAuditEntryPerEvaluation(t *testing.T) {
	t.Parallel()

	sink := NewMemorySink()
	e := New(sink, fixedNow)
	cfg := ingest.FilterConfig{AllowedGenres: []string{"Fiction"}, EnableGenreFilter: true}

	e.Apply(Candidate{Identifier: "pass", Title: "A", Genres: []string{"Fiction"}}, cfg)
	e.Apply(Candidate{Identifier: "fail", Title: "B", Genres: []string{"Science"}}, cfg)

	decisions := sink.Decisions()
	require.Len(t, decisions, 2)

	require.Equal(t, "pass", decisions[0].Identifier)
	require.Equal(t, ingest.FilterPassed, decisions[0].Result)
	require.Equal(t, PassedReason, decisions[0].Reason)
	require.Equal(t, fixedNow(), decisions[0].Timestamp)

	require.Equal(t, "fail", decisions[1].Identifier)
	require.Equal(t, ingest.FilterRejectedGenre, decisions[1].Result)
	require.NotEmpty(t, decisions[1].Reason)
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	e := New(nil, fixedNow)
	cfg := ingest.FilterConfig{
		AllowedGenres:      []string{"Fiction"},
		AllowedAuthors:     []string{"Twain"},
		EnableGenreFilter:  true,
		EnableAuthorFilter: true,
	}
	candidate := Candidate{Identifier: "id", Author: "Mark Twain", Genres: []string{"fiction"}}

	first := e.Apply(candidate, cfg)
	for range 10 {
		require.Equal(t, first, e.Apply(candidate, cfg))
	}
}
