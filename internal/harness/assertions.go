package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/smartcoll/internal/value"
	"github.com/roach88/smartcoll/internal/view"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertItems:
			err = assertItems(result, h.collectionName(assertion.Collection), assertion)
		case AssertTraceContains:
			err = assertTraceContains(filterTrace(result.Trace, assertion.Collection), assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(filterTrace(result.Trace, assertion.Collection), assertion)
		case AssertTraceSequence:
			err = assertTraceSequence(filterTrace(result.Trace, assertion.Collection), assertion)
		case AssertTraceCount:
			err = assertTraceCount(filterTrace(result.Trace, assertion.Collection), assertion)
		case AssertSuspended:
			err = assertSuspended(result, h, h.collectionName(assertion.Collection), assertion)
		case AssertView:
			err = assertView(h, h.collectionName(assertion.Collection), assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func (h *Harness) collectionName(name string) string {
	if name == "" {
		return h.scenario.Collection
	}
	return name
}

func filterTrace(trace []TraceEvent, coll string) []TraceEvent {
	if coll == "" {
		return trace
	}
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Collection == coll {
			out = append(out, ev)
		}
	}
	return out
}

// matchEvent reports whether ev has the given name and, when item is set,
// an item matching it.
func matchEvent(ev TraceEvent, name string, item value.Value) bool {
	if ev.Event != name {
		return false
	}
	if item == nil {
		return true
	}
	return ev.Item != nil && value.Match(ev.Item, item)
}

func optionalItem(raw any) (value.Value, error) {
	if raw == nil {
		return nil, nil
	}
	return value.FromAny(raw)
}

func formatItems(items []value.Value) string {
	return value.Format(value.Array(items))
}

func assertItems(result *Result, coll string, assertion Assertion) error {
	want, err := toValues(assertion.Items)
	if err != nil {
		return fmt.Errorf("items assertion: %w", err)
	}
	got := result.Items[coll]
	if slices.EqualFunc(got, want, value.Equal) {
		return nil
	}
	return &AssertionError{
		Type:     AssertItems,
		Expected: fmt.Sprintf("%s contains %s", coll, formatItems(want)),
		Actual:   formatItems(got),
	}
}

// assertTraceContains checks if the trace contains an event with the given
// name and matching item.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	item, err := optionalItem(assertion.Item)
	if err != nil {
		return fmt.Errorf("trace_contains assertion: %w", err)
	}
	for _, ev := range trace {
		if matchEvent(ev, assertion.Event, item) {
			return nil
		}
	}

	expected := assertion.Event
	if item != nil {
		expected += " " + value.Format(item)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the events appear in the given order.
// Events don't need to be consecutive (intervening events are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(assertion.Events) && ev.Event == assertion.Events[next] {
			next++
		}
	}
	if next == len(assertion.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("events in order: %v", assertion.Events),
		Actual:   fmt.Sprintf("missing %s after %v", assertion.Events[next], assertion.Events[:next]),
		Trace:    trace,
	}
}

// assertTraceSequence checks that the event names are exactly the given
// sequence.
func assertTraceSequence(trace []TraceEvent, assertion Assertion) error {
	got := make([]string, len(trace))
	for i, ev := range trace {
		got[i] = ev.Event
	}
	if slices.Equal(got, assertion.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceSequence,
		Expected: fmt.Sprintf("%v", assertion.Events),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    trace,
	}
}

// assertTraceCount checks if the event appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	item, err := optionalItem(assertion.Item)
	if err != nil {
		return fmt.Errorf("trace_count assertion: %w", err)
	}
	count := 0
	for _, ev := range trace {
		if matchEvent(ev, assertion.Event, item) {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertSuspended checks the operations still suspended at the end.
// Labels are compared in cancel order, one per operation.
func assertSuspended(result *Result, h *Harness, coll string, assertion Assertion) error {
	ids := result.Suspended[coll]
	if assertion.Count != nil && len(ids) != *assertion.Count {
		return &AssertionError{
			Type:     AssertSuspended,
			Expected: fmt.Sprintf("%d suspended operations in %s", *assertion.Count, coll),
			Actual:   fmt.Sprintf("%d: %v", len(ids), ids),
		}
	}
	if assertion.Labels == nil {
		return nil
	}
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = h.labelOf(coll, id)
	}
	if !slices.Equal(labels, assertion.Labels) {
		return &AssertionError{
			Type:     AssertSuspended,
			Expected: fmt.Sprintf("suspended labels %v", assertion.Labels),
			Actual:   fmt.Sprintf("%v", labels),
		}
	}
	return nil
}

// assertView evaluates a view of the collection's final contents.
func assertView(h *Harness, coll string, assertion Assertion) error {
	c, ok := h.ready[coll]
	if !ok {
		return fmt.Errorf("view assertion: collection %q was never used", coll)
	}
	var reg *view.Registry
	if spec, ok := h.specs[coll]; ok {
		var err error
		if reg, err = view.FromSpecs(c, spec.Views); err != nil {
			return fmt.Errorf("view assertion: %w", err)
		}
	} else {
		reg = view.NewRegistry(c)
	}

	got, err := reg.Get(assertion.View)
	if err != nil {
		return fmt.Errorf("view assertion: %w", err)
	}
	want, err := toValues(assertion.Items)
	if err != nil {
		return fmt.Errorf("view assertion: %w", err)
	}
	if slices.EqualFunc(got, want, value.Equal) {
		return nil
	}
	return &AssertionError{
		Type:     AssertView,
		Expected: fmt.Sprintf("view %s of %s is %s", assertion.View, coll, formatItems(want)),
		Actual:   formatItems(got),
	}
}
