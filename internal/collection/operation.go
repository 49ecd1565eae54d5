package collection

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/smartcoll/internal/value"
)

// Kind is the kind of an Operation.
type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
)

// State is an Operation's lifecycle state.
type State string

const (
	StatePending   State = "pending"
	StateCanceled  State = "canceled"
	StateCompleted State = "completed"
)

// Operation is one in-flight add or remove of a single item.
//
// It is the cancellation and resumption capability handed to handlers in
// every event about the item. Operations are owned by their collection;
// a canceled Operation stays reachable through Collection.Suspended until
// it is resumed.
type Operation struct {
	id       string
	kind     Kind
	item     value.Value
	position Position
	state    State
	resuming bool
	coll     *Collection
}

// ID returns the operation's stable identifier.
func (op *Operation) ID() string { return op.id }

// Kind returns KindAdd or KindRemove.
func (op *Operation) Kind() Kind { return op.kind }

// Item returns the item being added or removed.
func (op *Operation) Item() value.Value { return op.item }

// Position returns the target position recorded at creation.
func (op *Operation) Position() Position { return op.position }

// State returns the current lifecycle state.
func (op *Operation) State() State { return op.state }

// Canceled reports whether the operation is currently suspended.
func (op *Operation) Canceled() bool { return op.state == StateCanceled }

// Collection returns the owning collection.
func (op *Operation) Collection() *Collection { return op.coll }

// String renders the operation for logs and error messages.
func (op *Operation) String() string {
	return fmt.Sprintf("%s %s@%s [%s]", op.id, op.kind, op.position, op.state)
}

// Cancel suspends the operation and emits <kind>-cancel.
//
// The item is left untouched. Calling Cancel on an operation that is already
// canceled or completed does nothing.
func (op *Operation) Cancel() {
	if op.state != StatePending {
		return
	}
	op.state = StateCanceled
	op.coll.suspend(op)
	op.coll.logger.Debug("operation canceled",
		"collection", op.coll.name,
		"op_id", op.id,
		"kind", op.kind,
		"position", op.position.String())
	_, _, _, cancel, _ := eventsFor(op.kind)
	op.coll.emitOp(cancel, op)
}

// Resume completes a canceled operation.
//
// Resume is legal when the position is Append, 0 or below, or at or beyond the last
// index of the collection as it is now. Any other position returns an
// OperationError with ErrCodeIllegalResume and leaves the collection
// unchanged. Resume on an operation that is not canceled returns nil.
func (op *Operation) Resume() error {
	if op.state != StateCanceled || op.resuming {
		return nil
	}
	if !op.resumable() {
		err := newIllegalResumeError(op)
		op.coll.logger.Debug("illegal resume",
			"collection", op.coll.name,
			"op_id", op.id,
			"kind", op.kind,
			"position", op.position.String(),
			"len", len(op.coll.items))
		return err
	}

	op.resuming = true
	op.coll.unsuspend(op)
	_, _, _, _, resume := eventsFor(op.kind)
	op.coll.emitOp(resume, op)
	op.resuming = false
	op.state = StatePending
	op.Done()
	return nil
}

// resumable reports whether the target is an edge of the current list.
// Negative indices insert at the front, like At(0).
func (op *Operation) resumable() bool {
	idx, ok := op.position.Index()
	if !ok || idx <= 0 {
		return true
	}
	return idx >= len(op.coll.items)-1
}

// Done performs the terminal step: the mutation and its main and after
// events. It does nothing while the operation is canceled or once it has
// completed.
func (op *Operation) Done() {
	if op.state != StatePending {
		return
	}
	op.state = StateCompleted

	c := op.coll
	switch op.kind {
	case KindAdd:
		c.insert(op.position, op.item)
		c.emitOp(EventAdd, op)
		c.emitOp(EventAddAfter, op)
	case KindRemove:
		for {
			idx := value.IndexOf(c.items, op.item)
			if idx < 0 {
				break
			}
			c.items = slices.Delete(c.items, idx, idx+1)
			c.logger.Debug("item removed",
				"collection", c.name,
				"op_id", op.id,
				"index", idx)
			c.emitOp(EventRemove, op)
			c.emitOp(EventRemoveAfter, op)
			if len(c.items) == 0 {
				c.emit(Event{Name: EventEmpty})
			}
		}
	}
}

// LogValue groups the operation's identity for structured logs.
func (op *Operation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", op.id),
		slog.String("kind", string(op.kind)),
		slog.String("position", op.position.String()),
		slog.String("state", string(op.state)),
	)
}
