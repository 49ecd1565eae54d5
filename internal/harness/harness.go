package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/compiler"
	"github.com/roach88/smartcoll/internal/engine"
	"github.com/roach88/smartcoll/internal/guard"
	"github.com/roach88/smartcoll/internal/ir"
	"github.com/roach88/smartcoll/internal/store"
	"github.com/roach88/smartcoll/internal/value"
	"github.com/roach88/smartcoll/internal/view"
)

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	store  *store.Store
	runID  string
	logger *slog.Logger
}

// WithStore records the run's trace in st under runID instead of a fresh
// in-memory store.
func WithStore(st *store.Store, runID string) Option {
	return func(c *runConfig) {
		c.store = st
		c.runID = runID
	}
}

// WithLogger sets the logger for the engine and guards. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Harness is the test execution state of one scenario run.
type Harness struct {
	ctx      context.Context
	scenario *Scenario
	engine   *engine.Engine
	logger   *slog.Logger

	specs    map[string]*ir.CollectionSpec
	enforced map[string]*guard.Enforcer // spec guards, per collection
	rules    map[string]*guard.Enforcer // cancel rules, per collection
	features map[string]*view.Bound
	ready    map[string]*collection.Collection
}

// Run executes a test scenario and returns the result.
//
// Each run uses a fresh engine with sequential operation IDs ("op-1",
// "op-2", ...) and a logical clock starting at 1, so traces are
// reproducible. Events are recorded in an in-memory store unless WithStore
// is given.
//
// Execution flow:
//  1. Compile specs
//  2. Execute setup steps
//  3. Install cancel rules
//  4. Execute flow steps with expect validation
//  5. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx := context.Background()

	st := cfg.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}
	runID := cfg.runID
	if runID == "" {
		runID = "scenario:" + scenario.Name
	}
	rec, err := store.NewRecorder(ctx, st, store.Run{ID: runID, Label: scenario.Name},
		store.WithRecorderLogger(cfg.logger))
	if err != nil {
		return nil, err
	}

	specs, err := loadSpecs(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	engOpts := []engine.EngineOption{
		engine.WithLogger(cfg.logger),
		engine.WithIDGenerator(collection.NewSequentialGenerator("op")),
		engine.WithObserver(func(ev collection.Event) {
			result.Trace = append(result.Trace, newTraceEvent(ev))
		}),
		engine.WithObserver(rec.Handler()),
	}
	if scenario.MaxSteps > 0 {
		engOpts = append(engOpts, engine.WithMaxSteps(scenario.MaxSteps))
	}

	h := &Harness{
		ctx:      ctx,
		scenario: scenario,
		engine:   engine.New(engOpts...),
		logger:   cfg.logger,
		specs:    specs,
		enforced: make(map[string]*guard.Enforcer),
		rules:    make(map[string]*guard.Enforcer),
		features: make(map[string]*view.Bound),
		ready:    make(map[string]*collection.Collection),
	}

	for i, step := range scenario.Setup {
		if err := h.executeStep(fmt.Sprintf("setup[%d]", i), step, result); err != nil {
			return nil, err
		}
	}

	if err := h.installRules(); err != nil {
		return nil, err
	}

	for i, step := range scenario.Flow {
		if err := h.executeStep(fmt.Sprintf("flow[%d]", i), step, result); err != nil {
			return nil, err
		}
	}

	for _, name := range h.engine.Collections() {
		c := h.ready[name]
		result.Items[name] = c.Items()
		for _, op := range c.Suspended() {
			result.Suspended[name] = append(result.Suspended[name], op.ID())
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}

	if err := rec.Err(); err != nil {
		return nil, fmt.Errorf("failed to record trace: %w", err)
	}
	result.Recorded = rec.Count()
	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"events", len(result.Trace))
	return result, nil
}

func loadSpecs(s *Scenario) (map[string]*ir.CollectionSpec, error) {
	specs := make(map[string]*ir.CollectionSpec)
	add := func(source string, res *compiler.LoadResult, errs []error) error {
		if len(errs) > 0 {
			return fmt.Errorf("failed to load specs from %s: %w", source, errors.Join(errs...))
		}
		for i := range res.Collections {
			spec := &res.Collections[i]
			if _, dup := specs[spec.Name]; dup {
				return fmt.Errorf("failed to load specs from %s: collection %q already defined", source, spec.Name)
			}
			specs[spec.Name] = spec
		}
		return nil
	}

	for _, dir := range s.Specs {
		res, errs := compiler.LoadDir(dir, compiler.LoadModeFailFast)
		if err := add(dir, res, errs); err != nil {
			return nil, err
		}
	}
	if s.Spec != "" {
		res, errs := compiler.LoadString(s.Spec, s.Name+".cue")
		if err := add("inline spec", res, errs); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// collection returns the named collection, installing its spec guards and
// features on first use.
func (h *Harness) collection(name string) (*collection.Collection, error) {
	if name == "" {
		name = h.scenario.Collection
	}
	if c, ok := h.ready[name]; ok {
		return c, nil
	}

	c := h.engine.Collection(name)
	if spec, ok := h.specs[name]; ok {
		e, err := guard.Install(c, spec, h.engine, guard.WithLogger(h.logger))
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", name, err)
		}
		h.enforced[name] = e
	}
	b, err := view.Bind(c, h.scenario.Features...)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", name, err)
	}
	h.features[name] = b
	h.ready[name] = c
	return c, nil
}

func (h *Harness) installRules() error {
	byCollection := make(map[string][]ir.Guard)
	var order []string
	for i, rule := range h.scenario.Cancel {
		name := rule.Collection
		if name == "" {
			name = h.scenario.Collection
		}
		g := ir.Guard{
			Name:   rule.Label,
			Event:  rule.Event,
			Resume: ir.ResumePolicy(rule.Resume),
		}
		if rule.When != nil {
			when, err := value.FromAny(rule.When)
			if err != nil {
				return fmt.Errorf("cancel[%d]: when: %w", i, err)
			}
			g.When = when
		}
		if _, seen := byCollection[name]; !seen {
			order = append(order, name)
		}
		byCollection[name] = append(byCollection[name], g)
	}

	for _, name := range order {
		c, err := h.collection(name)
		if err != nil {
			return err
		}
		spec := &ir.CollectionSpec{Name: name, Guards: byCollection[name]}
		e, err := guard.Install(c, spec, h.engine, guard.WithLogger(h.logger))
		if err != nil {
			return fmt.Errorf("cancel rules on %q: %w", name, err)
		}
		h.rules[name] = e
	}
	return nil
}

// outcome is what a step produced, checked against its expect clause.
type outcome struct {
	err     error
	flushed *bool
	result  value.Value
}

func (h *Harness) executeStep(where string, step Step, result *Result) error {
	c, err := h.collection(step.Collection)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}

	resumeErrs := h.resumeErrorCount()
	out, err := h.apply(c, step)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if errs := h.resumeErrorsSince(resumeErrs); len(errs) > 0 {
		out.err = errors.Join(append([]error{out.err}, errs...)...)
	}

	h.checkExpect(where, step.Expect, out, result)
	h.logger.Debug("step completed",
		"step", where,
		"collection", c.Name(),
		"error", out.err)
	return nil
}

// apply runs one step. Errors returned here are malformed steps; errors the
// collection reports are part of the outcome.
func (h *Harness) apply(c *collection.Collection, step Step) (outcome, error) {
	var out outcome
	switch {
	case step.Add != nil:
		items, err := toValues(step.Add)
		if err != nil {
			return out, fmt.Errorf("add: %w", err)
		}
		c.Add(items...)
	case step.AddFirst != nil:
		items, err := toValues(step.AddFirst)
		if err != nil {
			return out, fmt.Errorf("add_first: %w", err)
		}
		c.AddFirst(items...)
	case step.AddAt != nil:
		items, err := toValues(step.AddAt.Items)
		if err != nil {
			return out, fmt.Errorf("add_at: %w", err)
		}
		c.AddAt(collection.At(step.AddAt.Index), items...)
	case step.Remove != nil:
		patterns, err := toValues(step.Remove)
		if err != nil {
			return out, fmt.Errorf("remove: %w", err)
		}
		c.Remove(patterns...)
	case step.RemoveAt != nil:
		c.RemoveAt(*step.RemoveAt)
	case step.RemoveFirst:
		c.RemoveFirst()
	case step.RemoveLast:
		c.RemoveLast()
	case step.RemoveRange != nil:
		c.RemoveRange(step.RemoveRange.Start, step.RemoveRange.Length)
	case step.Flush:
		flushed := c.Flush()
		out.flushed = &flushed
	case step.Resume != "":
		out.err = h.resumeLabel(c, step.Resume)
	case step.Drain:
		out.err = h.engine.Drain(h.ctx)
	case step.Call != nil:
		args, err := toValues(step.Call.Args)
		if err != nil {
			return out, fmt.Errorf("call: %w", err)
		}
		out.result, out.err = h.features[c.Name()].Call(step.Call.Feature, args...)
	}
	return out, nil
}

// resumeLabel resumes every suspended operation canceled under label, in
// cancel order.
func (h *Harness) resumeLabel(c *collection.Collection, label string) error {
	var ids []string
	for _, op := range c.Suspended() {
		if h.labelOf(c.Name(), op.ID()) == label {
			ids = append(ids, op.ID())
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no suspended operation labeled %q", label)
	}
	var errs []error
	for _, id := range ids {
		if err := c.ResumeByID(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// labelOf names the rule or guard that canceled an operation. Schema
// rejections are labeled "schema".
func (h *Harness) labelOf(coll, opID string) string {
	for _, e := range []*guard.Enforcer{h.rules[coll], h.enforced[coll]} {
		if e == nil {
			continue
		}
		for _, r := range e.Rejections() {
			if r.OpID != opID {
				continue
			}
			if r.Guard == "" {
				return "schema"
			}
			return r.Guard
		}
	}
	return ""
}

func (h *Harness) enforcers() []*guard.Enforcer {
	var out []*guard.Enforcer
	for _, name := range h.engine.Collections() {
		for _, e := range []*guard.Enforcer{h.enforced[name], h.rules[name]} {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

func (h *Harness) resumeErrorCount() map[*guard.Enforcer]int {
	counts := make(map[*guard.Enforcer]int)
	for _, e := range h.enforcers() {
		counts[e] = len(e.Errors())
	}
	return counts
}

func (h *Harness) resumeErrorsSince(counts map[*guard.Enforcer]int) []error {
	var out []error
	for _, e := range h.enforcers() {
		errs := e.Errors()
		out = append(out, errs[counts[e]:]...)
	}
	return out
}

func (h *Harness) checkExpect(where string, expect *StepExpect, out outcome, result *Result) {
	if expect == nil || expect.Error == "" {
		if out.err != nil {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", where, out.err))
		}
	} else {
		switch {
		case out.err == nil:
			result.AddError(fmt.Sprintf("%s: expected error containing %q, got none", where, expect.Error))
		case !strings.Contains(out.err.Error(), expect.Error):
			result.AddError(fmt.Sprintf("%s: expected error containing %q, got %q", where, expect.Error, out.err.Error()))
		}
	}
	if expect == nil {
		return
	}

	if expect.Flushed != nil && out.flushed != nil && *expect.Flushed != *out.flushed {
		result.AddError(fmt.Sprintf("%s: expected flush to return %t, got %t", where, *expect.Flushed, *out.flushed))
	}
	if expect.Result != nil {
		want, err := value.FromAny(expect.Result)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: expect.result: %v", where, err))
			return
		}
		if out.result == nil || !value.Equal(want, out.result) {
			got := "<none>"
			if out.result != nil {
				got = value.Format(out.result)
			}
			result.AddError(fmt.Sprintf("%s: expected result %s, got %s", where, value.Format(want), got))
		}
	}
}

func toValues(raw []any) ([]value.Value, error) {
	out := make([]value.Value, 0, len(raw))
	for i, r := range raw {
		v, err := value.FromAny(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
