// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestBooksTotal         *prometheus.CounterVec
	ingestJobsTotal          *prometheus.CounterVec
	archiveRequestsTotal     *prometheus.CounterVec
	rateLimitDelaySeconds    *prometheus.HistogramVec
	filterDecisionsTotal     *prometheus.CounterVec
	categorySyncUpdatesTotal *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		ingestBooksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_books_total",
				Help: "Books handled by the pipeline, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		ingestJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_jobs_total",
				Help: "Completed ingestion runs, labeled by final status.",
			},
			[]string{"status"},
		)

		archiveRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_archive_requests_total",
				Help: "Requests issued to the source archive, labeled by source and status code.",
			},
			[]string{"source", "status"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_rate_limit_delay_seconds",
				Help:    "Delay introduced by the archive rate limiter.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"source"},
		)

		filterDecisionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_filter_decisions_total",
				Help: "Filter evaluations, labeled by result.",
			},
			[]string{"result"},
		)

		categorySyncUpdatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_category_sync_total",
				Help: "Bulk category sync record outcomes.",
			},
			[]string{"result"},
		)
	})
}

// ObserveBookOutcome counts one per-book pipeline outcome.
func ObserveBookOutcome(outcome string) {
	if ingestBooksTotal != nil {
		ingestBooksTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveJobStatus counts a finished run by status.
func ObserveJobStatus(status string) {
	if ingestJobsTotal != nil {
		ingestJobsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveArchiveRequest counts one archive request attempt.
func ObserveArchiveRequest(source, status string) {
	if archiveRequestsTotal != nil {
		archiveRequestsTotal.WithLabelValues(source, status).Inc()
	}
}

// ObserveRateLimitDelay records time spent waiting on the rate limiter.
func ObserveRateLimitDelay(source string, d time.Duration) {
	if rateLimitDelaySeconds != nil {
		rateLimitDelaySeconds.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveFilterDecision counts one filter evaluation by result.
func ObserveFilterDecision(result string) {
	if filterDecisionsTotal != nil {
		filterDecisionsTotal.WithLabelValues(result).Inc()
	}
}

// ObserveCategorySync counts one bulk category sync record outcome.
func ObserveCategorySync(result string) {
	if categorySyncUpdatesTotal != nil {
		categorySyncUpdatesTotal.WithLabelValues(result).Inc()
	}
}
