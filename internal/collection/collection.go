package collection

import (
	"log/slog"
	"slices"

	"github.com/roach88/smartcoll/internal/value"
)

// Collection is a named, ordered sequence of items whose mutations run
// through the before/mutate/after operation protocol.
//
// A Collection is not safe for concurrent use. See the package doc.
type Collection struct {
	name   string
	items  []value.Value
	bus    *bus
	clock  *Clock
	ids    IDGenerator
	logger *slog.Logger

	suspended map[string]*Operation
	order     []string
}

// Config carries construction settings supplied as a record rather than a
// bare name.
type Config struct {
	Name string `json:"name" yaml:"name" koanf:"name"`
}

// Option configures a Collection.
type Option func(*Collection)

// WithIDGenerator sets the operation ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Collection) {
		c.ids = g
	}
}

// WithClock sets the logical clock used to stamp events. Sharing a clock
// across collections yields a single ordered event stream.
func WithClock(clk *Clock) Option {
	return func(c *Collection) {
		c.clock = clk
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) {
		c.logger = l
	}
}

// New creates an empty collection with the given name.
func New(name string, opts ...Option) *Collection {
	c := &Collection{
		name:      name,
		bus:       newBus(),
		clock:     NewClock(),
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
		suspended: make(map[string]*Operation),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates an empty collection named by cfg.
func NewFromConfig(cfg Config, opts ...Option) *Collection {
	return New(cfg.Name, opts...)
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// Items returns a copy of the current items in order.
func (c *Collection) Items() []value.Value { return slices.Clone(c.items) }

// Len returns the number of items.
func (c *Collection) Len() int { return len(c.items) }

// At returns the item at index i.
func (c *Collection) At(i int) (value.Value, bool) {
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i], true
}

// On registers h for the named event.
func (c *Collection) On(name EventName, h Handler) (Subscription, error) {
	return c.bus.on(name, h)
}

// OnAny registers h for every event. Catch-all handlers run before the
// handlers registered for a specific name.
func (c *Collection) OnAny(h Handler) (Subscription, error) {
	return c.bus.onAny(h)
}

// Off unregisters a handler. Returns false if it was not registered.
func (c *Collection) Off(sub Subscription) bool {
	return c.bus.off(sub)
}

// Listeners returns the number of handlers registered for name.
func (c *Collection) Listeners(name EventName) int {
	return c.bus.count(name)
}

// Add appends items, one operation per item.
func (c *Collection) Add(items ...value.Value) []*Operation {
	return c.AddAt(Append, items...)
}

// AddFirst inserts items at the front, keeping their order.
func (c *Collection) AddFirst(items ...value.Value) []*Operation {
	return c.AddAt(At(0), items...)
}

// AddAt adds items starting at pos. For a concrete index, the index is
// incremented after every item, canceled or not, so the batch stays
// contiguous and in input order.
func (c *Collection) AddAt(pos Position, items ...value.Value) []*Operation {
	ops := make([]*Operation, 0, len(items))
	for _, item := range items {
		ops = append(ops, c.addOne(pos, item))
		pos = pos.next()
	}
	return ops
}

func (c *Collection) addOne(pos Position, item value.Value) *Operation {
	op := c.newOperation(KindAdd, item, pos)
	c.emitOp(EventAddBefore, op)
	if !op.Canceled() {
		op.Done()
	}
	return op
}

// RemoveAt removes the item at index. Returns nil when index is out of
// range.
func (c *Collection) RemoveAt(index int) *Operation {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	op := c.newOperation(KindRemove, c.items[index], At(index))
	c.emitOp(EventRemoveBefore, op)
	if !op.Canceled() {
		op.Done()
	}
	return op
}

// RemoveFirst removes the first item.
func (c *Collection) RemoveFirst() *Operation {
	return c.RemoveAt(0)
}

// RemoveLast removes the last item.
func (c *Collection) RemoveLast() *Operation {
	return c.RemoveAt(len(c.items) - 1)
}

// RemoveRange calls RemoveAt(start) length times.
func (c *Collection) RemoveRange(start, length int) []*Operation {
	var ops []*Operation
	for range length {
		if op := c.RemoveAt(start); op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// Remove removes every item matching each pattern. An object pattern
// matches items containing all of its keys with equal values; any other
// pattern matches equal items. Removal of a pattern stops at the first
// canceled operation.
func (c *Collection) Remove(patterns ...value.Value) []*Operation {
	var ops []*Operation
	for _, p := range patterns {
		for {
			idx := value.IndexMatch(c.items, p)
			if idx < 0 {
				break
			}
			before := len(c.items)
			op := c.RemoveAt(idx)
			ops = append(ops, op)
			if op.Canceled() || len(c.items) >= before {
				break
			}
		}
	}
	return ops
}

// Flush removes items from the end until the collection is empty, then
// emits flush. If a removal is left suspended, Flush stops, does not emit
// flush, and returns false.
func (c *Collection) Flush() bool {
	for len(c.items) > 0 {
		before := len(c.items)
		op := c.RemoveLast()
		if op.State() != StateCompleted || len(c.items) >= before {
			c.logger.Debug("flush interrupted",
				"collection", c.name,
				"op_id", op.ID(),
				"remaining", len(c.items))
			return false
		}
	}
	c.emit(Event{Name: EventFlush})
	return true
}

// Suspended returns the canceled operations in cancel order.
func (c *Collection) Suspended() []*Operation {
	out := make([]*Operation, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.suspended[id])
	}
	return out
}

// Lookup returns the suspended operation with the given ID.
func (c *Collection) Lookup(id string) (*Operation, bool) {
	op, ok := c.suspended[id]
	return op, ok
}

// ResumeByID resumes a suspended operation.
func (c *Collection) ResumeByID(id string) error {
	op, ok := c.suspended[id]
	if !ok {
		return &OperationError{
			Code:    ErrCodeUnknownOperation,
			Message: "no suspended operation with this id",
			OpID:    id,
		}
	}
	return op.Resume()
}

func (c *Collection) newOperation(kind Kind, item value.Value, pos Position) *Operation {
	op := &Operation{
		id:       c.ids.Generate(),
		kind:     kind,
		item:     item,
		position: pos,
		state:    StatePending,
		coll:     c,
	}
	c.logger.Debug("operation started",
		"collection", c.name,
		"op_id", op.id,
		"kind", kind,
		"position", pos.String())
	return op
}

// insert places item at pos, clamping indices to the current bounds.
func (c *Collection) insert(pos Position, item value.Value) {
	idx, ok := pos.Index()
	if !ok || idx >= len(c.items) {
		c.items = append(c.items, item)
		return
	}
	c.items = slices.Insert(c.items, max(idx, 0), item)
}

func (c *Collection) suspend(op *Operation) {
	if _, ok := c.suspended[op.id]; ok {
		return
	}
	c.suspended[op.id] = op
	c.order = append(c.order, op.id)
}

func (c *Collection) unsuspend(op *Operation) {
	delete(c.suspended, op.id)
	c.order = slices.DeleteFunc(c.order, func(id string) bool { return id == op.id })
}

func (c *Collection) emitOp(name EventName, op *Operation) {
	c.emit(Event{Name: name, Item: op.item, Op: op})
}

func (c *Collection) emit(ev Event) {
	ev.Seq = c.clock.Next()
	ev.Collection = c
	c.bus.emit(ev)
}
