package collection

import "github.com/roach88/smartcoll/internal/value"

// EventName identifies an event emitted by a Collection.
type EventName string

const (
	EventAddBefore    EventName = "add-before"
	EventAdd          EventName = "add"
	EventAddAfter     EventName = "add-after"
	EventAddCancel    EventName = "add-cancel"
	EventAddResume    EventName = "add-resume"
	EventRemoveBefore EventName = "remove-before"
	EventRemove       EventName = "remove"
	EventRemoveAfter  EventName = "remove-after"
	EventRemoveCancel EventName = "remove-cancel"
	EventRemoveResume EventName = "remove-resume"
	EventEmpty        EventName = "empty"
	EventFlush        EventName = "flush"
)

// EventNames lists every event in documentation order.
var EventNames = []EventName{
	EventAddBefore, EventAdd, EventAddAfter, EventAddCancel, EventAddResume,
	EventRemoveBefore, EventRemove, EventRemoveAfter, EventRemoveCancel, EventRemoveResume,
	EventEmpty, EventFlush,
}

// ValidEvent reports whether name is an event a Collection emits.
func ValidEvent(name EventName) bool {
	for _, n := range EventNames {
		if n == name {
			return true
		}
	}
	return false
}

// Event is the single payload record passed to every handler.
//
// Collection is always set. Item and Op are set for every add/remove event
// and nil for empty and flush. For cancel events Op is the resume capability.
type Event struct {
	Name       EventName
	Seq        int64
	Collection *Collection
	Item       value.Value
	Op         *Operation
}

// Handler observes events. Handlers run synchronously in registration order.
type Handler func(Event)

// eventsFor returns the event names used by an operation kind.
func eventsFor(k Kind) (before, main, after, cancel, resume EventName) {
	if k == KindRemove {
		return EventRemoveBefore, EventRemove, EventRemoveAfter, EventRemoveCancel, EventRemoveResume
	}
	return EventAddBefore, EventAdd, EventAddAfter, EventAddCancel, EventAddResume
}
