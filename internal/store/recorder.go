package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/smartcoll/internal/collection"
)

// Recorder writes collection events to the store as they are emitted.
//
// Handlers cannot fail, so write errors are logged and the first one is kept
// for Err. Recording continues after a failure.
type Recorder struct {
	ctx    context.Context
	store  *Store
	run    Run
	logger *slog.Logger

	mu    sync.Mutex
	count int
	err   error
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger. Default: slog.Default().
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder registers run and returns a recorder writing to it.
func NewRecorder(ctx context.Context, s *Store, run Run, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{ctx: ctx, store: s, run: run, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if err := s.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("open recorder: %w", err)
	}
	r.logger.Info("recorder open", "run_id", run.ID, "label", run.Label)
	return r, nil
}

// Handler returns a catch-all collection handler that records every event.
func (r *Recorder) Handler() collection.Handler {
	return r.Record
}

// Record writes one event.
func (r *Recorder) Record(ev collection.Event) {
	rec := EventRecord{
		RunID:      r.run.ID,
		Seq:        ev.Seq,
		Collection: ev.Collection.Name(),
		Event:      string(ev.Name),
		Item:       ev.Item,
	}
	if ev.Op != nil {
		rec.OpID = ev.Op.ID()
		rec.Kind = string(ev.Op.Kind())
		rec.Position = ev.Op.Position().String()
	}

	err := r.store.WriteEvent(r.ctx, rec)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.logger.Error("record event failed",
			"run_id", r.run.ID,
			"seq", ev.Seq,
			"event", ev.Name,
			"error", err)
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.count++
}

// Run returns the run being recorded.
func (r *Recorder) Run() Run {
	return r.run
}

// Count returns the number of events written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
