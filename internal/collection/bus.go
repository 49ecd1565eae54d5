package collection

import (
	"fmt"
	"slices"
)

// Subscription identifies a registered handler. Pass it to Off to remove it.
type Subscription struct {
	id   uint64
	name EventName // empty for OnAny subscriptions
}

type subscriber struct {
	id      uint64
	handler Handler
}

// bus keeps handlers per event name in registration order.
//
// Catch-all handlers run before named handlers so that observers recording
// the event stream see each event before any handler reacts to it.
type bus struct {
	nextID uint64
	named  map[EventName][]subscriber
	any    []subscriber
}

func newBus() *bus {
	return &bus{named: make(map[EventName][]subscriber)}
}

func (b *bus) on(name EventName, h Handler) (Subscription, error) {
	if !ValidEvent(name) {
		return Subscription{}, &OperationError{
			Code:    ErrCodeUnknownEvent,
			Message: fmt.Sprintf("unknown event %q", name),
		}
	}
	if h == nil {
		return Subscription{}, &OperationError{
			Code:    ErrCodeNilHandler,
			Message: fmt.Sprintf("handler for %q must be a function", name),
		}
	}
	b.nextID++
	b.named[name] = append(b.named[name], subscriber{id: b.nextID, handler: h})
	return Subscription{id: b.nextID, name: name}, nil
}

func (b *bus) onAny(h Handler) (Subscription, error) {
	if h == nil {
		return Subscription{}, &OperationError{
			Code:    ErrCodeNilHandler,
			Message: "catch-all handler must be a function",
		}
	}
	b.nextID++
	b.any = append(b.any, subscriber{id: b.nextID, handler: h})
	return Subscription{id: b.nextID}, nil
}

func (b *bus) off(sub Subscription) bool {
	match := func(s subscriber) bool { return s.id == sub.id }
	if sub.name == "" {
		n := len(b.any)
		b.any = slices.DeleteFunc(b.any, match)
		return len(b.any) != n
	}
	subs := b.named[sub.name]
	n := len(subs)
	b.named[sub.name] = slices.DeleteFunc(subs, match)
	return len(b.named[sub.name]) != n
}

// emit delivers ev to a snapshot of the current handlers, so handlers that
// register or unregister during delivery take effect from the next event.
func (b *bus) emit(ev Event) {
	for _, s := range slices.Clone(b.any) {
		s.handler(ev)
	}
	for _, s := range slices.Clone(b.named[ev.Name]) {
		s.handler(ev)
	}
}

func (b *bus) count(name EventName) int {
	return len(b.named[name])
}
