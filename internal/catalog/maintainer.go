// Package catalog holds catalog-level maintenance jobs that operate on any
// CatalogStore implementation.
package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/ingest"
	"github.com/harwoodm/atheneum/internal/metrics"
)

// SyncError attributes one category update failure to a record.
type SyncError struct {
	BookID string `json:"book_id"`
	Error  string `json:"error"`
}

// SyncResult summarizes a bulk category sync. Updated + Errors always equals
// the number of records fetched for the run.
type SyncResult struct {
	Updated int         `json:"updated"`
	Errors  int         `json:"errors"`
	Details []SyncError `json:"details,omitempty"`
}

// Maintainer re-derives the category of every stored record.
type Maintainer struct {
	store  ingest.CatalogStore
	logger *zap.Logger
}

// NewMaintainer constructs a Maintainer.
func NewMaintainer(store ingest.CatalogStore, logger *zap.Logger) *Maintainer {
	return &Maintainer{store: store, logger: logger}
}

// SyncAllCategories recomputes category for every record exactly once.
// Per-record failures are counted and recorded but never stop the sweep;
// only the initial listing can fail the run as a whole.
func (m *Maintainer) SyncAllCategories(ctx context.Context) (SyncResult, error) {
	records, err := m.store.ListRecords(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list records: %w", err)
	}

	var result SyncResult
	for _, rec := range records {
		category := ingest.DeriveCategory(rec.Genres)
		if err := m.store.UpdateCategory(ctx, rec.ID, category); err != nil {
			result.Errors++
			result.Details = append(result.Details, SyncError{BookID: rec.ID, Error: err.Error()})
			metrics.ObserveCategorySync("error")
			m.logger.Warn("category update failed",
				zap.String("book_id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		result.Updated++
		metrics.ObserveCategorySync("updated")
	}

	m.logger.Info("category sync finished",
		zap.Int("total", len(records)),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}
