package entities

import "time"

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusPartial   ImportStatus = "partial" // Some items failed to convert
	ImportStatusFailed    ImportStatus = "failed"  // Commit failed, nothing converted or the run was aborted
)

// ImportSession is the history record of one pipeline run.
type ImportSession struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	RunID       string       `gorm:"uniqueIndex;size:36" json:"run_id"`
	Status      ImportStatus `gorm:"size:20;default:'running'" json:"status"`
	ItemsQueued int          `json:"items_queued"`
	Converted   int          `json:"converted"`
	Failed      int          `json:"failed"`
	Imported    int          `json:"imported"`
	Errors      string       `gorm:"type:text" json:"errors,omitempty"` // JSON array of messages
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (ImportSession) TableName() string {
	return "import_sessions"
}
