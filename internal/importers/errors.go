package importers

import (
	"errors"
	"fmt"
)

// Per-item failures. The pipeline recovers from these locally: they become a
// progress event and membership in RunResult.Failed, never a Run error.
var (
	// ErrNotFound means the source file or remote record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformed means the raw or converted data is structurally invalid.
	ErrMalformed = errors.New("malformed level data")
	// ErrTransient means a network or service failure. It is not retried.
	ErrTransient = errors.New("transient failure")
)

// Run-level failures. These abort the remaining steps and reach the caller.
var (
	ErrStoreUnavailable = errors.New("levels database is not attached")
	ErrStoreWriteFailed = errors.New("failed to write levels to the database")
	ErrAlreadyRunning   = errors.New("an import run is already in progress")
	ErrQueueLocked      = errors.New("the pipeline cannot be modified while an import is running")
	ErrOwnerRequired    = errors.New("an owner must be assigned before adding levels to the pipeline")
	ErrEmptyQueue       = errors.New("there are no levels in the pipeline to import")
)

// Stage names the step at which an item failed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageConvert Stage = "convert"
)

// ItemError ties a per-item failure to the pending item that caused it.
type ItemError struct {
	Item  PendingItem
	Stage Stage
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Item.Source, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-queuing the item may succeed without changing
// its source.
func (e *ItemError) Retryable() bool {
	return errors.Is(e.Err, ErrTransient)
}
