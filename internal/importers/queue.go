package importers

import (
	"sync"
)

// Queue is the operator's list of pending items. While a run owns the queue
// it cannot be modified.
type Queue struct {
	mu      sync.Mutex
	items   []PendingItem
	running bool
}

func NewQueue() *Queue {
	return &Queue{}
}

// Add appends items that are not queued yet and returns how many were added.
func (q *Queue) Add(items ...PendingItem) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return 0, ErrQueueLocked
	}

	seen := make(map[string]bool, len(q.items))
	for _, it := range q.items {
		seen[it.Key()] = true
	}

	added := 0
	for _, it := range items {
		if seen[it.Key()] {
			continue
		}
		seen[it.Key()] = true
		q.items = append(q.items, it)
		added++
	}
	return added, nil
}

// Remove drops every queued item whose key is listed and returns how many
// were removed. Unknown keys are ignored.
func (q *Queue) Remove(keys ...string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return 0, ErrQueueLocked
	}

	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	kept := q.items[:0]
	for _, it := range q.items {
		if !drop[it.Key()] {
			kept = append(kept, it)
		}
	}
	removed := len(q.items) - len(kept)
	q.items = kept
	return removed, nil
}

func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return ErrQueueLocked
	}
	q.items = nil
	return nil
}

// Items returns a copy of the queued items in insertion order.
func (q *Queue) Items() []PendingItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// BeginRun locks the queue and returns the snapshot the run will work on.
func (q *Queue) BeginRun() ([]PendingItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return nil, ErrAlreadyRunning
	}
	q.running = true
	return q.snapshot(), nil
}

// EndRun unlocks the queue. With replace set the queue content becomes items,
// which is how failed items are handed back to the operator.
func (q *Queue) EndRun(replace bool, items []PendingItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if replace {
		q.items = append([]PendingItem(nil), items...)
	}
	q.running = false
}

func (q *Queue) snapshot() []PendingItem {
	out := make([]PendingItem, len(q.items))
	copy(out, q.items)
	return out
}
