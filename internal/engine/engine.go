package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/smartcoll/internal/collection"
)

// DefaultMaxSteps is the default maximum number of tasks per drain.
const DefaultMaxSteps = 10000

// Engine is the single-writer loop that owns a set of named collections.
//
// Thread-safety model:
//   - Enqueue(), Defer(), DeferResume(): safe from any goroutine
//   - Collection(): safe from any goroutine; the returned collection must
//     only be used from tasks or before Run starts
//   - Run() or Drain(): called from exactly one goroutine at a time
type Engine struct {
	queue     *taskQueue
	clock     *collection.Clock
	ids       collection.IDGenerator
	logger    *slog.Logger
	maxSteps  int
	observers []collection.Handler

	mu          sync.Mutex
	collections map[string]*collection.Collection
	names       []string
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger for the engine and its collections.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the logical clock shared by all collections.
// Used to continue numbering after a previously recorded trace.
func WithClock(c *collection.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the operation ID generator shared by all collections.
func WithIDGenerator(g collection.IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMaxSteps sets the maximum tasks per Drain. Zero disables the limit.
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithObserver registers h as a catch-all handler on every collection the
// engine creates. Observers are attached before any other handler.
func WithObserver(h collection.Handler) EngineOption {
	return func(e *Engine) {
		if h != nil {
			e.observers = append(e.observers, h)
		}
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		queue:       newTaskQueue(),
		clock:       collection.NewClock(),
		ids:         collection.UUIDv7Generator{},
		logger:      slog.Default(),
		maxSteps:    DefaultMaxSteps,
		collections: make(map[string]*collection.Collection),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the shared logical clock.
func (e *Engine) Clock() *collection.Clock {
	return e.clock
}

// Collection returns the named collection, creating it on first use.
func (e *Engine) Collection(name string) *collection.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.collections[name]; ok {
		return c
	}
	c := collection.New(name,
		collection.WithClock(e.clock),
		collection.WithIDGenerator(e.ids),
		collection.WithLogger(e.logger),
	)
	for _, h := range e.observers {
		// Observers are non-nil (WithObserver filters), so OnAny cannot fail.
		_, _ = c.OnAny(h)
	}
	e.collections[name] = c
	e.names = append(e.names, name)
	e.logger.Debug("collection created", "collection", name)
	return c
}

// Collections returns collection names in creation order.
func (e *Engine) Collections() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.names...)
}

// Enqueue submits a task for the loop.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(t Task) bool {
	return e.queue.Enqueue(t)
}

// Defer schedules fn to run on a later turn of the loop.
func (e *Engine) Defer(name string, fn func() error) bool {
	return e.Enqueue(Task{
		Name: name,
		Fn:   func(context.Context) error { return fn() },
	})
}

// DeferResume schedules op.Resume on a later turn of the loop. If the
// operation has been resumed in the meantime the task does nothing.
func (e *Engine) DeferResume(op *collection.Operation) bool {
	return e.Defer("resume "+op.ID(), op.Resume)
}

// Do runs fn on the loop goroutine and waits for its result. Run must be
// active on another goroutine.
func (e *Engine) Do(ctx context.Context, name string, fn func() error) error {
	result := make(chan error, 1)
	ok := e.Enqueue(Task{
		Name: name,
		Fn: func(context.Context) error {
			err := fn()
			result <- err
			return err
		},
	})
	if !ok {
		return &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped", Task: name}
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Run starts the single-writer loop.
// Blocks until the context is cancelled or Stop() is called.
//
// On task failure the error is logged with the task name and processing
// continues.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		task, ok := e.queue.TryDequeue()
		if ok {
			_ = e.runTask(ctx, task)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue, so this fires
			// immediately once stopped.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is
// empty, including tasks enqueued by the tasks it runs.
//
// Task errors are logged and returned joined. A drain that exceeds the step
// quota stops with a StepsExceededError, leaving the remaining tasks queued.
func (e *Engine) Drain(ctx context.Context) error {
	quota := NewQuotaEnforcer(e.maxSteps)
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		task, ok := e.queue.peek()
		if !ok {
			break
		}
		if err := quota.Check(task.Name); err != nil {
			e.logger.Error("max steps quota exceeded",
				"task", task.Name,
				"steps", quota.Current(),
				"limit", quota.MaxSteps(),
				"pending", e.queue.Len())
			return errors.Join(append(errs, err)...)
		}
		task, _ = e.queue.TryDequeue()
		if err := e.runTask(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop closes the queue. Run returns once queued tasks have run.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) runTask(ctx context.Context, t Task) error {
	e.logger.Debug("running task", "task", t.Name)
	if t.Fn == nil {
		return nil
	}
	if err := t.Fn(ctx); err != nil {
		e.logger.Error("task failed",
			"task", t.Name,
			"error", err)
		return taskError(t.Name, err)
	}
	return nil
}
