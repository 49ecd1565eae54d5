package testutil

import (
	"sync"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/value"
)

// EventLog records collection events as short text lines for tests.
//
// Lines have the form `<event>` or `<event> <item>`, for example:
//
//	add-before "A"
//	empty
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type EventLog struct {
	mu     sync.Mutex
	events []collection.Event
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Attach registers the log on c as a catch-all handler.
func (l *EventLog) Attach(c *collection.Collection) {
	// The handler is non-nil, so OnAny cannot fail.
	_, _ = c.OnAny(l.Record)
}

// Record appends one event. Usable directly as a collection.Handler.
func (l *EventLog) Record(ev collection.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// Lines returns the recorded events rendered as text.
func (l *EventLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = string(ev.Name)
		if ev.Item != nil {
			out[i] += " " + value.Format(ev.Item)
		}
	}
	return out
}

// Names returns the recorded event names.
func (l *EventLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = string(ev.Name)
	}
	return out
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []collection.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]collection.Event(nil), l.events...)
}

// Reset clears the log for test reuse.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
