// Package sessions records the history of import runs in the levels store.
//
// # Usage
//
//	repo := sessions.NewRepository(db)
//	_ = repo.StartRun(runID, len(items))
//	_ = repo.FinishRun(runID, sessions.Outcome{...})
package sessions

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/pr2ps/levelimporter/internal/entities"
)

// Outcome is the final tally of a run.
type Outcome struct {
	Status    entities.ImportStatus
	Converted int
	Failed    int
	Imported  int
	Errors    []string
}

// Repository handles all import session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StartRun creates the record for a run that is about to begin.
func (r *Repository) StartRun(runID string, itemsQueued int) error {
	session := entities.ImportSession{
		RunID:       runID,
		Status:      entities.ImportStatusRunning,
		ItemsQueued: itemsQueued,
		StartedAt:   time.Now(),
	}
	return r.db.Create(&session).Error
}

// FinishRun stores the outcome of a run.
func (r *Repository) FinishRun(runID string, outcome Outcome) error {
	now := time.Now()
	updates := map[string]any{
		"status":       outcome.Status,
		"converted":    outcome.Converted,
		"failed":       outcome.Failed,
		"imported":     outcome.Imported,
		"completed_at": &now,
	}
	if len(outcome.Errors) > 0 {
		data, err := json.Marshal(outcome.Errors)
		if err != nil {
			return err
		}
		updates["errors"] = string(data)
	}

	return r.db.Model(&entities.ImportSession{}).
		Where("run_id = ?", runID).
		Updates(updates).Error
}

// GetRun retrieves a run by its id.
func (r *Repository) GetRun(runID string) (*entities.ImportSession, error) {
	var session entities.ImportSession
	err := r.db.Where("run_id = ?", runID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RecentRuns returns the latest runs, newest first.
func (r *Repository) RecentRuns(limit int) ([]entities.ImportSession, error) {
	var sessions []entities.ImportSession
	query := r.db.Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}
