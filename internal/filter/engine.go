// Package filter implements the genre/author allow-list engine. The engine
// performs no I/O and is deterministic; every evaluation emits exactly one
// audit decision.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/harwoodm/atheneum/internal/ingest"
	"github.com/harwoodm/atheneum/internal/metrics"
)

// PassedReason is the audit reason recorded for passing evaluations.
const PassedReason = "Passed all filters"

// Candidate is the subset of book state the filters evaluate.
type Candidate struct {
	Identifier string
	Title      string
	Author     string
	Genres     []string
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Passed bool
	Result ingest.FilterResult
	Reason string
}

// Engine evaluates candidates against a FilterConfig snapshot.
type Engine struct {
	audit ingest.AuditSink
	now   func() time.Time
}

// New constructs an Engine writing audit entries to sink. A nil sink
// discards decisions.
func New(sink ingest.AuditSink, now func() time.Time) *Engine {
	if sink == nil {
		sink = discardSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{audit: sink, now: now}
}

// Apply evaluates the genre filter, then the author filter. When both would
// fail, the genre failure is the one reported.
func (e *Engine) Apply(candidate Candidate, cfg ingest.FilterConfig) Decision {
	decision := evaluate(candidate, cfg)
	e.audit.Record(ingest.FilterDecision{
		Identifier: candidate.Identifier,
		Title:      candidate.Title,
		Author:     candidate.Author,
		Genres:     candidate.Genres,
		Result:     decision.Result,
		Reason:     decision.Reason,
		Timestamp:  e.now().UTC(),
	})
	metrics.ObserveFilterDecision(string(decision.Result))
	return decision
}

func evaluate(candidate Candidate, cfg ingest.FilterConfig) Decision {
	if reason, ok := checkGenres(candidate, cfg); !ok {
		return Decision{Result: ingest.FilterRejectedGenre, Reason: reason}
	}
	if reason, ok := checkAuthor(candidate, cfg); !ok {
		return Decision{Result: ingest.FilterRejectedAuthor, Reason: reason}
	}
	return Decision{Passed: true, Result: ingest.FilterPassed, Reason: PassedReason}
}

// checkGenres passes when the filter is disabled, the allow-list is empty,
// or the candidate's genres intersect it case-insensitively.
func checkGenres(candidate Candidate, cfg ingest.FilterConfig) (string, bool) {
	if !cfg.EnableGenreFilter || len(cfg.AllowedGenres) == 0 {
		return "", true
	}
	if len(candidate.Genres) == 0 {
		return "Book has no genres", false
	}
	allowed := make(map[string]bool, len(cfg.AllowedGenres))
	for _, g := range cfg.AllowedGenres {
		allowed[strings.ToLower(strings.TrimSpace(g))] = true
	}
	for _, g := range candidate.Genres {
		if allowed[strings.ToLower(strings.TrimSpace(g))] {
			return "", true
		}
	}
	return fmt.Sprintf(
		"Genres [%s] do not match allowed genres [%s]",
		strings.Join(candidate.Genres, ", "),
		strings.Join(cfg.AllowedGenres, ", "),
	), false
}

// checkAuthor passes when the filter is disabled, the allow-list is empty,
// or some allowed author is a case-insensitive, whitespace-trimmed substring
// of the candidate's author field (supports partial/last-name matching).
func checkAuthor(candidate Candidate, cfg ingest.FilterConfig) (string, bool) {
	if !cfg.EnableAuthorFilter || len(cfg.AllowedAuthors) == 0 {
		return "", true
	}
	author := strings.TrimSpace(candidate.Author)
	if author == "" {
		return "Book has no author", false
	}
	haystack := strings.ToLower(author)
	for _, a := range cfg.AllowedAuthors {
		needle := strings.ToLower(strings.TrimSpace(a))
		if needle != "" && strings.Contains(haystack, needle) {
			return "", true
		}
	}
	return fmt.Sprintf("Author %q does not match any allowed author", candidate.Author), false
}

type discardSink struct{}

func (discardSink) Record(ingest.FilterDecision) {}
