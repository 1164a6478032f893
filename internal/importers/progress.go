package importers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

type EventKind string

const (
	EventInfo    EventKind = "info"
	EventWarning EventKind = "warning"
	EventError   EventKind = "error"
)

// Event is a progress notification emitted while a run is in flight. Warning
// and Error events always name the item they are about; Info events never do.
type Event struct {
	Kind    EventKind    `json:"kind"`
	Message string       `json:"message"`
	Item    *PendingItem `json:"-"`
}

// MarshalJSON identifies the related item by its queue key, the same key the
// queue is edited with.
func (e Event) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind    EventKind `json:"kind"`
		Message string    `json:"message"`
		ItemKey string    `json:"item_key,omitempty"`
	}{Kind: e.Kind, Message: e.Message}
	if e.Item != nil {
		out.ItemKey = e.Item.Key()
	}
	return json.Marshal(out)
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func Info(format string, args ...any) Event {
	return Event{Kind: EventInfo, Message: fmt.Sprintf(format, args...)}
}

func Warn(item PendingItem, format string, args ...any) Event {
	return Event{Kind: EventWarning, Message: fmt.Sprintf(format, args...), Item: &item}
}

func Fail(item PendingItem, format string, args ...any) Event {
	return Event{Kind: EventError, Message: fmt.Sprintf(format, args...), Item: &item}
}

// Sink receives progress events. A non-nil error from Report aborts the run.
type Sink interface {
	Report(ctx context.Context, ev Event) error
}

type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Report(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// LogSink writes events to the standard logger.
type LogSink struct{}

func (LogSink) Report(_ context.Context, ev Event) error {
	log.Printf("[IMPORT] %s", ev)
	return nil
}

// Recorder keeps every event it receives and can be read while a run is
// still in progress.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   Sink
}

// NewRecorder returns a Recorder that also forwards events to next, if set.
func NewRecorder(next Sink) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Report(ctx context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	if r.next != nil {
		return r.next.Report(ctx, ev)
	}
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events are of the given kind.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
