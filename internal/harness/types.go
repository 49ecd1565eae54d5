package harness

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/value"
)

// TraceEvent is one collection event observed during a run.
type TraceEvent struct {
	Seq        int64       `json:"seq"`
	Collection string      `json:"collection"`
	Event      string      `json:"event"`
	OpID       string      `json:"op_id,omitempty"`
	Item       value.Value `json:"-"`
}

func newTraceEvent(ev collection.Event) TraceEvent {
	te := TraceEvent{
		Seq:        ev.Seq,
		Collection: ev.Collection.Name(),
		Event:      string(ev.Name),
		Item:       ev.Item,
	}
	if ev.Op != nil {
		te.OpID = ev.Op.ID()
	}
	return te
}

// String renders the event as one golden trace line:
//
//	<seq> <collection> <event> [<op id> <item>]
func (e TraceEvent) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(e.Seq, 10))
	b.WriteByte(' ')
	b.WriteString(e.Collection)
	b.WriteByte(' ')
	b.WriteString(e.Event)
	if e.OpID != "" {
		b.WriteByte(' ')
		b.WriteString(e.OpID)
	}
	if e.Item != nil {
		b.WriteByte(' ')
		b.WriteString(value.Format(e.Item))
	}
	return b.String()
}

// MarshalJSON includes the item as plain JSON.
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	type plain TraceEvent
	return json.Marshal(struct {
		plain
		Item any `json:"item,omitempty"`
	}{plain: plain(e), Item: value.ToAny(e.Item)})
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion holds.
	Pass bool `json:"pass"`

	// Trace contains every event in emission order.
	Trace []TraceEvent `json:"trace"`

	// Items holds the final contents per collection.
	Items map[string][]value.Value `json:"-"`

	// Suspended holds the IDs of operations still suspended at the end,
	// per collection.
	Suspended map[string][]string `json:"suspended,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Recorded is the number of events written to the trace store.
	Recorded int `json:"recorded"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Items:     make(map[string][]value.Value),
		Suspended: make(map[string][]string),
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// TraceText renders the trace one event per line.
func (r *Result) TraceText() string {
	var b strings.Builder
	for _, ev := range r.Trace {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	return b.String()
}
