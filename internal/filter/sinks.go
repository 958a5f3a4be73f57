package filter

import (
	"sync"

	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/ingest"
)

// LogSink writes audit decisions to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record logs a single decision.
func (s *LogSink) Record(d ingest.FilterDecision) {
	s.logger.Info("filter decision",
		zap.String("identifier", d.Identifier),
		zap.String("title", d.Title),
		zap.String("author", d.Author),
		zap.Strings("genres", d.Genres),
		zap.String("result", string(d.Result)),
		zap.String("reason", d.Reason),
	)
}

// MemorySink buffers decisions in order, for tests and run summaries.
type MemorySink struct {
	mu        sync.Mutex
	decisions []ingest.FilterDecision
}

// NewMemorySink constructs a MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends a decision.
func (s *MemorySink) Record(d ingest.FilterDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
}

// Decisions returns a copy of everything recorded so far, in order.
func (s *MemorySink) Decisions() []ingest.FilterDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ingest.FilterDecision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// MultiSink fans decisions out to several sinks.
type MultiSink []ingest.AuditSink

// Record forwards the decision to every sink.
func (m MultiSink) Record(d ingest.FilterDecision) {
	for _, s := range m {
		s.Record(d)
	}
}
