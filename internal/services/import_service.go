package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/database/levels"
	"github.com/pr2ps/levelimporter/internal/database/sessions"
	"github.com/pr2ps/levelimporter/internal/database/users"
	"github.com/pr2ps/levelimporter/internal/entities"
	"github.com/pr2ps/levelimporter/internal/exporters"
	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/pr2"
)

var (
	ErrUsersUnavailable  = errors.New("main database is not attached")
	ErrSearchUnavailable = errors.New("no remote level server configured")
)

// ImportService holds the operator's state between actions: the attached
// stores, the selected owner and the pending queue. It drives a run from the
// queue snapshot through conversion to the single commit.
type ImportService struct {
	pipeline  *importers.Pipeline
	queue     *importers.Queue
	searcher  LevelSearcher
	batchSize int

	mu       sync.Mutex
	mainDB   *database.Database
	levelsDB *database.Database
	users    *users.Repository
	exporter importers.Exporter
	sessions *sessions.Repository
	owner    *importers.Owner
	status   *runState
}

type runState struct {
	recorder *importers.Recorder
	done     chan struct{}
	running  bool
	result   *ImportResult
	err      error
}

// NewImportService creates a service with no stores attached. searcher may be
// nil when remote search is not available.
func NewImportService(pipeline *importers.Pipeline, searcher LevelSearcher, batchSize int) *ImportService {
	return &ImportService{
		pipeline:  pipeline,
		queue:     importers.NewQueue(),
		searcher:  searcher,
		batchSize: batchSize,
	}
}

// AttachStore opens and validates the store at path, replacing any store of
// the same kind attached earlier.
func (s *ImportService) AttachStore(kind database.Kind, path string) error {
	if s.queue.Running() {
		return importers.ErrAlreadyRunning
	}

	db, err := database.Attach(path, kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case database.KindMain:
		if s.mainDB != nil {
			s.mainDB.Close()
		}
		s.mainDB = db
		s.users = users.NewRepository(db.DB)
		s.owner = nil
	case database.KindLevels:
		if s.levelsDB != nil {
			s.levelsDB.Close()
		}
		s.levelsDB = db
		s.exporter = exporters.NewDatabaseExporter(levels.NewRepository(db.DB), s.batchSize)
		s.sessions = sessions.NewRepository(db.DB)
	}

	log.Printf("[IMPORT] Attached %s database %s", kind, path)
	return nil
}

// Stores returns the paths of the attached stores, empty when not attached.
func (s *ImportService) Stores() map[database.Kind]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[database.Kind]string{database.KindMain: "", database.KindLevels: ""}
	if s.mainDB != nil {
		out[database.KindMain] = s.mainDB.Path
	}
	if s.levelsDB != nil {
		out[database.KindLevels] = s.levelsDB.Path
	}
	return out
}

// PingStores checks the connection of every attached store.
func (s *ImportService) PingStores() map[database.Kind]error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[database.Kind]error)
	for _, db := range []*database.Database{s.mainDB, s.levelsDB} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		out[db.Kind] = err
	}
	return out
}

func (s *ImportService) FindUsers(term, mode string) ([]entities.User, error) {
	searchMode, err := users.ParseSearchMode(mode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	repo := s.users
	s.mu.Unlock()

	if repo == nil {
		return nil, ErrUsersUnavailable
	}
	return repo.FindUsers(term, searchMode)
}

// SelectOwner makes the user with the given id the owner of every level
// queued from now on.
func (s *ImportService) SelectOwner(userID uint) (importers.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users == nil {
		return importers.Owner{}, ErrUsersUnavailable
	}
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return importers.Owner{}, fmt.Errorf("failed to find user %d: %w", userID, err)
	}

	owner := importers.Owner{ID: user.ID, Username: user.Username}
	s.owner = &owner
	return owner, nil
}

// SelectOwnerByRef selects the owner by numeric id or by username.
func (s *ImportService) SelectOwnerByRef(ref string) (importers.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users == nil {
		return importers.Owner{}, ErrUsersUnavailable
	}
	user, err := s.users.Resolve(ref)
	if err != nil {
		return importers.Owner{}, fmt.Errorf("failed to find user %q: %w", ref, err)
	}

	owner := importers.Owner{ID: user.ID, Username: user.Username}
	s.owner = &owner
	return owner, nil
}

func (s *ImportService) Owner() (importers.Owner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == nil {
		return importers.Owner{}, false
	}
	return *s.owner, true
}

func (s *ImportService) SearchLevels(ctx context.Context, query pr2.SearchQuery) ([]pr2.SearchResult, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	return s.searcher.Search(ctx, query)
}

// Enqueue queues the given sources for the selected owner. Sources already in
// the queue are skipped; the number of new items is returned.
func (s *ImportService) Enqueue(sources ...importers.Source) (int, error) {
	return s.enqueue(sources)
}

func (s *ImportService) EnqueueLocal(paths ...string) (int, error) {
	sources := make([]importers.Source, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		sources = append(sources, importers.LocalFile{Path: p})
	}
	return s.enqueue(sources)
}

// EnqueueRemote queues a level by the id and optional version typed by the
// operator.
func (s *ImportService) EnqueueRemote(rawID, rawVersion string) (int, error) {
	src, err := importers.ParseRemoteByID(rawID, rawVersion)
	if err != nil {
		return 0, err
	}
	return s.enqueue([]importers.Source{src})
}

func (s *ImportService) EnqueueSearchResult(levelID int64, version int) (int, error) {
	if levelID <= 0 || version <= 0 {
		return 0, fmt.Errorf("search result needs a positive level id and version")
	}
	return s.enqueue([]importers.Source{importers.RemoteSearchResult{LevelID: levelID, Version: version}})
}

func (s *ImportService) enqueue(sources []importers.Source) (int, error) {
	owner, ok := s.Owner()
	if !ok {
		return 0, importers.ErrOwnerRequired
	}

	items := make([]importers.PendingItem, 0, len(sources))
	for _, src := range sources {
		item, err := importers.NewPendingItem(owner, src)
		if err != nil {
			return 0, err
		}
		items = append(items, item)
	}
	return s.queue.Add(items...)
}

// Dequeue removes the items with the given keys from the queue.
func (s *ImportService) Dequeue(keys ...string) (int, error) {
	return s.queue.Remove(keys...)
}

func (s *ImportService) Queue() []importers.PendingItem {
	return s.queue.Items()
}

// Run converts the queued items and commits the converted levels in one
// batch. After a successful commit the queue holds only the failed items.
func (s *ImportService) Run(ctx context.Context, sink importers.Sink) (*ImportResult, error) {
	items, exporter, history, err := s.beginRun()
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, items, exporter, history, sink)
}

// StartRun launches Run in the background. Progress can be followed with
// Status. Precondition failures are returned immediately.
func (s *ImportService) StartRun(ctx context.Context) error {
	items, exporter, history, err := s.beginRun()
	if err != nil {
		return err
	}

	state := &runState{
		recorder: importers.NewRecorder(importers.LogSink{}),
		done:     make(chan struct{}),
		running:  true,
	}
	s.mu.Lock()
	s.status = state
	s.mu.Unlock()

	go func() {
		result, err := s.execute(ctx, items, exporter, history, state.recorder)

		s.mu.Lock()
		state.running = false
		state.result = result
		state.err = err
		s.mu.Unlock()
		close(state.done)
	}()
	return nil
}

// WaitForRun blocks until the background run started last has finished, or
// until ctx is done.
func (s *ImportService) WaitForRun(ctx context.Context) error {
	s.mu.Lock()
	state := s.status
	s.mu.Unlock()

	if state == nil {
		return nil
	}
	select {
	case <-state.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports on the background run started last.
func (s *ImportService) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == nil {
		return RunStatus{Events: []importers.Event{}}
	}
	st := RunStatus{
		Running: s.status.running,
		Events:  s.status.recorder.Events(),
		Result:  s.status.result,
	}
	if s.status.err != nil {
		st.Error = s.status.err.Error()
	}
	return st
}

// RecentRuns lists the run history stored in the levels database.
func (s *ImportService) RecentRuns(limit int) ([]entities.ImportSession, error) {
	s.mu.Lock()
	history := s.sessions
	s.mu.Unlock()

	if history == nil {
		return nil, importers.ErrStoreUnavailable
	}
	return history.RecentRuns(limit)
}

func (s *ImportService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mainDB != nil {
		s.mainDB.Close()
		s.mainDB = nil
	}
	if s.levelsDB != nil {
		s.levelsDB.Close()
		s.levelsDB = nil
	}
}

func (s *ImportService) beginRun() ([]importers.PendingItem, importers.Exporter, *sessions.Repository, error) {
	s.mu.Lock()
	exporter, history := s.exporter, s.sessions
	s.mu.Unlock()

	if exporter == nil {
		return nil, nil, nil, importers.ErrStoreUnavailable
	}

	items, err := s.queue.BeginRun()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(items) == 0 {
		s.queue.EndRun(false, nil)
		return nil, nil, nil, importers.ErrEmptyQueue
	}
	return items, exporter, history, nil
}

func (s *ImportService) execute(ctx context.Context, items []importers.PendingItem, exporter importers.Exporter, history *sessions.Repository, sink importers.Sink) (*ImportResult, error) {
	replace := false
	var remaining []importers.PendingItem
	defer func() { s.queue.EndRun(replace, remaining) }()

	runID := uuid.New()
	log.Printf("[IMPORT] Starting run %s over %d queued levels", runID, len(items))

	if history != nil {
		if err := history.StartRun(runID.String(), len(items)); err != nil {
			log.Printf("[IMPORT] Failed to record run %s: %v", runID, err)
		}
	}

	run, err := s.pipeline.RunWithID(ctx, runID, items, sink)
	if err != nil {
		recordOutcome(history, runID.String(), sessions.Outcome{
			Status: entities.ImportStatusFailed,
			Errors: []string{err.Error()},
		})
		return nil, err
	}

	result := &ImportResult{
		RunID:      run.RunID.String(),
		Queued:     len(items),
		Converted:  len(run.Converted),
		Failed:     len(run.Failed),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	for _, itemErr := range run.Errors {
		result.Errors = append(result.Errors, itemErr.Error())
	}

	var commitErr error
	switch {
	case len(run.Converted) == 0:
		result.Status = entities.ImportStatusFailed
		result.Summary = "No levels were imported."
	default:
		if commitErr = exporter.Import(ctx, run.Converted); commitErr != nil {
			result.Status = entities.ImportStatusFailed
			result.Summary = fmt.Sprintf("Failed to save %d converted levels.", len(run.Converted))
			result.Errors = append(result.Errors, commitErr.Error())
			break
		}
		result.Imported = len(run.Converted)
		if len(run.Failed) == 0 {
			result.Status = entities.ImportStatusCompleted
			result.Summary = fmt.Sprintf("Successfully materialized all %d levels!", result.Imported)
		} else {
			result.Status = entities.ImportStatusPartial
			result.Summary = fmt.Sprintf("Materialized %d levels out of %d.", result.Imported, len(items))
		}
		replace, remaining = true, run.Failed
	}

	recordOutcome(history, result.RunID, sessions.Outcome{
		Status:    result.Status,
		Converted: result.Converted,
		Failed:    result.Failed,
		Imported:  result.Imported,
		Errors:    result.Errors,
	})

	if err := sink.Report(ctx, importers.Info("%s", result.Summary)); err != nil {
		log.Printf("[IMPORT] Failed to report summary: %v", err)
	}

	if commitErr != nil {
		return result, commitErr
	}
	return result, nil
}

func recordOutcome(history *sessions.Repository, runID string, outcome sessions.Outcome) {
	if history == nil {
		return
	}
	if err := history.FinishRun(runID, outcome); err != nil {
		log.Printf("[IMPORT] Failed to record outcome of run %s: %v", runID, err)
	}
}
