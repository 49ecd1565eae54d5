package guard

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/ir"
	"github.com/roach88/smartcoll/internal/value"
)

// Scheduler runs a resume on a later turn. *engine.Engine satisfies it.
type Scheduler interface {
	DeferResume(op *collection.Operation) bool
}

// Rejection records an operation canceled by the item schema or a guard.
type Rejection struct {
	OpID   string
	Guard  string // empty for schema rejections
	Item   value.Value
	Reason string
}

// Option configures Install.
type Option func(*Enforcer)

// WithLogger sets the logger used for rejections and failed resumes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enforcer) {
		e.logger = l
	}
}

// Enforcer is a spec installed on one collection.
type Enforcer struct {
	coll       *collection.Collection
	spec       *ir.CollectionSpec
	sched      Scheduler
	logger     *slog.Logger
	subs       []collection.Subscription
	rejections []Rejection
	errs       []error
}

// Install registers the spec's schema check and guards on c.
//
// sched may be nil when no guard uses the deferred policy.
func Install(c *collection.Collection, spec *ir.CollectionSpec, sched Scheduler, opts ...Option) (*Enforcer, error) {
	if spec == nil {
		return nil, errors.New("guard: nil spec")
	}
	for i, g := range spec.Guards {
		switch g.Event {
		case ir.EventAddBefore, ir.EventRemoveBefore:
		default:
			return nil, fmt.Errorf("guard %s: event %q is not a before event", guardName(g, i), g.Event)
		}
		switch g.Resume {
		case ir.ResumeNever, ir.ResumeImmediate, "":
		case ir.ResumeDeferred:
			if sched == nil {
				return nil, fmt.Errorf("guard %s: deferred resume requires a scheduler", guardName(g, i))
			}
		default:
			return nil, fmt.Errorf("guard %s: unknown resume policy %q", guardName(g, i), g.Resume)
		}
	}

	e := &Enforcer{
		coll:   c,
		spec:   spec,
		sched:  sched,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, name := range []collection.EventName{collection.EventAddBefore, collection.EventRemoveBefore} {
		sub, err := c.On(name, e.handle)
		if err != nil {
			e.Uninstall()
			return nil, fmt.Errorf("install guard on %s: %w", name, err)
		}
		e.subs = append(e.subs, sub)
	}

	e.logger.Debug("guards installed",
		"collection", c.Name(),
		"guards", len(spec.Guards),
		"schema", spec.Schema != nil)
	return e, nil
}

// Uninstall removes the enforcer's handlers.
func (e *Enforcer) Uninstall() {
	for _, sub := range e.subs {
		e.coll.Off(sub)
	}
	e.subs = nil
}

// Rejections returns the operations canceled so far, in cancel order.
func (e *Enforcer) Rejections() []Rejection {
	return append([]Rejection(nil), e.rejections...)
}

// Errors returns the immediate resumes that failed. The failed operations
// stay suspended.
func (e *Enforcer) Errors() []error {
	return append([]error(nil), e.errs...)
}

func (e *Enforcer) handle(ev collection.Event) {
	op := ev.Op
	if op == nil || op.State() != collection.StatePending {
		return
	}

	if ev.Name == collection.EventAddBefore {
		if err := CheckItem(e.spec.Schema, ev.Item); err != nil {
			e.reject(op, "", "schema: "+err.Error())
			op.Cancel()
			return
		}
	}

	for i, g := range e.spec.Guards {
		if collection.EventName(g.Event) != ev.Name {
			continue
		}
		if g.When != nil && !value.Match(ev.Item, g.When) {
			continue
		}
		e.apply(op, g, guardName(g, i))
		return
	}
}

func (e *Enforcer) apply(op *collection.Operation, g ir.Guard, name string) {
	resume := g.Resume
	if resume == "" {
		resume = ir.ResumeNever
	}
	e.reject(op, name, "resume: "+string(resume))
	op.Cancel()

	switch resume {
	case ir.ResumeImmediate:
		if err := op.Resume(); err != nil {
			e.logger.Warn("immediate resume failed",
				"collection", e.coll.Name(),
				"guard", name,
				"op_id", op.ID(),
				"error", err)
			e.errs = append(e.errs, fmt.Errorf("guard %s: %w", name, err))
		}
	case ir.ResumeDeferred:
		if !e.sched.DeferResume(op) {
			e.logger.Warn("deferred resume not scheduled",
				"collection", e.coll.Name(),
				"guard", name,
				"op_id", op.ID())
		}
	}
}

func (e *Enforcer) reject(op *collection.Operation, guard, reason string) {
	e.logger.Debug("operation rejected",
		"collection", e.coll.Name(),
		"op_id", op.ID(),
		"kind", op.Kind(),
		"guard", guard,
		"reason", reason)
	e.rejections = append(e.rejections, Rejection{
		OpID:   op.ID(),
		Guard:  guard,
		Item:   op.Item(),
		Reason: reason,
	})
}

func guardName(g ir.Guard, i int) string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("#%d", i)
}
