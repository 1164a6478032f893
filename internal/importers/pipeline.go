package importers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pr2ps/levelimporter/internal/entities"
)

// Resolver fetches the raw container behind a source.
//
// Implementations:
//   - SourceResolver (resolver.go) - local files and the PR2 level server
type Resolver interface {
	Resolve(ctx context.Context, src Source) (*RawLevel, error)
}

// Converter validates a raw container and turns it into a canonical level
// owned by owner. Implementations must not perform I/O.
//
// Implementations:
//   - LevelConverter (converter.go)
type Converter interface {
	Convert(raw *RawLevel, owner Owner) (entities.Level, error)
}

// Exporter persists converted levels. It is called at most once per run and
// never with an empty slice.
type Exporter interface {
	Import(ctx context.Context, levels []entities.Level) error
}

// RunResult summarises one pass over a queue snapshot.
// len(Converted)+len(Failed) always equals the number of input items.
type RunResult struct {
	RunID      uuid.UUID
	Converted  []entities.Level
	Failed     []PendingItem
	Errors     []*ItemError
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *RunResult) Total() int {
	return len(r.Converted) + len(r.Failed)
}

// Pipeline resolves and converts pending items one by one, isolating
// per-item failures. It does not write anything; committing RunResult.Converted
// is up to the caller.
type Pipeline struct {
	resolver    Resolver
	converter   Converter
	workers     int
	itemTimeout time.Duration

	running atomic.Bool
}

type Option func(*Pipeline)

// WithWorkers processes up to n items at a time. Progress events then arrive
// in completion order instead of input order; RunResult.Converted keeps input
// order either way.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithItemTimeout bounds the time spent resolving and converting one item.
// An item that runs out of time fails as a transient error.
func WithItemTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.itemTimeout = d
		}
	}
}

func NewPipeline(resolver Resolver, converter Converter, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:  resolver,
		converter: converter,
		workers:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsRunning reports whether a Run is in progress.
func (p *Pipeline) IsRunning() bool {
	return p.running.Load()
}

type outcome struct {
	level entities.Level
	err   *ItemError
}

// Run attempts every item exactly once and reports progress to sink as it
// goes. Per-item failures never make Run fail; only an unusable sink or a
// cancelled ctx does, in which case no result is returned.
func (p *Pipeline) Run(ctx context.Context, items []PendingItem, sink Sink) (*RunResult, error) {
	return p.RunWithID(ctx, uuid.New(), items, sink)
}

// RunWithID is Run under a caller-chosen run id, so the run can be recorded
// before it starts.
func (p *Pipeline) RunWithID(ctx context.Context, runID uuid.UUID, items []PendingItem, sink Sink) (*RunResult, error) {
	if sink == nil {
		return nil, errors.New("a progress sink is required")
	}
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	result := &RunResult{
		RunID:     runID,
		StartedAt: time.Now(),
	}

	outcomes := make([]outcome, len(items))
	var err error
	if p.workers > 1 && len(items) > 1 {
		err = p.runConcurrent(ctx, items, outcomes, sink)
	} else {
		err = p.runSequential(ctx, items, outcomes, sink)
	}
	if err != nil {
		log.Printf("[IMPORT] Run %s aborted: %v", result.RunID, err)
		return nil, err
	}

	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, items[i])
			result.Errors = append(result.Errors, o.err)
			continue
		}
		result.Converted = append(result.Converted, o.level)
	}
	result.FinishedAt = time.Now()

	log.Printf("[IMPORT] Run %s finished: %d converted, %d failed in %s",
		result.RunID, len(result.Converted), len(result.Failed), result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))

	return result, nil
}

func (p *Pipeline) runSequential(ctx context.Context, items []PendingItem, outcomes []outcome, sink Sink) error {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import cancelled: %w", err)
		}

		level, itemErr := p.process(ctx, item)
		if itemErr != nil && ctx.Err() != nil {
			return fmt.Errorf("import cancelled: %w", ctx.Err())
		}
		outcomes[i] = outcome{level: level, err: itemErr}

		if err := report(ctx, sink, item, outcomes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runConcurrent(ctx context.Context, items []PendingItem, outcomes []outcome, sink Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	// Sinks are not required to be safe for concurrent use.
	var mu sync.Mutex

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			level, itemErr := p.process(gctx, item)
			if itemErr != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i] = outcome{level: level, err: itemErr}

			mu.Lock()
			defer mu.Unlock()
			return report(gctx, sink, item, outcomes[i])
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("import cancelled: %w", ctx.Err())
		}
		return err
	}
	return nil
}

func (p *Pipeline) process(ctx context.Context, item PendingItem) (entities.Level, *ItemError) {
	if p.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.itemTimeout)
		defer cancel()
	}

	raw, err := p.resolver.Resolve(ctx, item.Source)
	if err != nil {
		return entities.Level{}, &ItemError{Item: item, Stage: StageResolve, Err: asTransient(err)}
	}

	level, err := p.converter.Convert(raw, item.Owner)
	if err != nil {
		return entities.Level{}, &ItemError{Item: item, Stage: StageConvert, Err: err}
	}
	return level, nil
}

// asTransient marks timeouts as transient so they are reported as warnings.
func asTransient(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTransient) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

func report(ctx context.Context, sink Sink, item PendingItem, o outcome) error {
	var ev Event
	switch {
	case o.err == nil:
		ev = Info("Converted %s: %q", item.Source, o.level.Title)
	case o.err.Retryable():
		ev = Warn(item, "%v", o.err)
	default:
		ev = Fail(item, "%v", o.err)
	}

	if err := sink.Report(ctx, ev); err != nil {
		return fmt.Errorf("progress sink failed: %w", err)
	}
	return nil
}
