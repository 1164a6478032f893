package services

import (
	"context"
	"time"

	"github.com/pr2ps/levelimporter/internal/entities"
	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/pr2"
)

// LevelSearcher queries the remote level server. Only one search may be in
// flight at a time.
type LevelSearcher interface {
	Search(ctx context.Context, query pr2.SearchQuery) ([]pr2.SearchResult, error)
	IsBusy() bool
}

// ImportResult contains the outcome of one import run.
type ImportResult struct {
	RunID      string                `json:"run_id"`
	Status     entities.ImportStatus `json:"status"`
	Queued     int                   `json:"queued"`
	Converted  int                   `json:"converted"`
	Failed     int                   `json:"failed"`
	Imported   int                   `json:"imported"`
	Summary    string                `json:"summary"`
	Errors     []string              `json:"errors,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
}

// RunStatus is a snapshot of the current or most recent background run.
type RunStatus struct {
	Running bool              `json:"running"`
	Events  []importers.Event `json:"events"`
	Result  *ImportResult     `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}
