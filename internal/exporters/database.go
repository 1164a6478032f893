package exporters

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pr2ps/levelimporter/internal/entities"
	"github.com/pr2ps/levelimporter/internal/importers"
)

// LevelStore is the write side of the levels database.
type LevelStore interface {
	ImportLevels(ctx context.Context, levels []entities.Level, batchSize int) error
}

// DatabaseExporter commits converted levels to the levels database. A commit
// is all-or-nothing: either every level of the batch is stored or none is.
type DatabaseExporter struct {
	store     LevelStore
	batchSize int
}

func NewDatabaseExporter(store LevelStore, batchSize int) *DatabaseExporter {
	return &DatabaseExporter{store: store, batchSize: batchSize}
}

// Import implements importers.Exporter. An empty slice is a no-op.
func (e *DatabaseExporter) Import(ctx context.Context, levels []entities.Level) error {
	if len(levels) == 0 {
		return nil
	}
	if e.store == nil {
		return importers.ErrStoreUnavailable
	}

	start := time.Now()
	if err := e.store.ImportLevels(ctx, levels, e.batchSize); err != nil {
		log.Printf("[EXPORT] Failed to write %d levels: %v", len(levels), err)
		return fmt.Errorf("%w: %w", importers.ErrStoreWriteFailed, err)
	}

	log.Printf("[EXPORT] Wrote %d levels in %s", len(levels), time.Since(start).Round(time.Millisecond))
	return nil
}
