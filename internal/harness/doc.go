// Package harness runs YAML scenarios against collections and checks the
// resulting event traces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	collection: people
//	spec: |
//	  collection: people: {
//	      schema: { name: string }
//	      views: adults: where: { adult: true }
//	  }
//	features: [pluck, size]
//	cancel:
//	  - event: remove-before
//	    when: { name: "bob" }
//	    label: keep-bob
//	    resume: deferred
//	setup:
//	  - add: [{ name: "ada" }, { name: "bob" }]
//	flow:
//	  - remove: [{ name: "bob" }]
//	  - drain: true
//	  - call: { feature: size }
//	    expect: { result: 1 }
//	assertions:
//	  - type: items
//	    items: [{ name: "ada" }]
//	  - type: trace_order
//	    events: [remove-before, remove-cancel, remove-resume, remove]
//
// # Steps
//
// Each step carries exactly one action: add, add_first, add_at, remove,
// remove_at, remove_first, remove_last, remove_range, flush, resume (by
// cancel rule label), drain (run deferred resumes) or call (a bound
// feature). A step fails the scenario when it reports an error, unless
// expect.error names a substring of that error.
//
// # Assertion Types
//
//   - items: the collection's final contents
//   - trace_contains: an event, optionally with a matching item, occurred
//   - trace_order: events occurred in the given relative order
//   - trace_sequence: the event names are exactly the given list
//   - trace_count: an event occurred exactly N times
//   - suspended: operations still suspended, by count or cancel label
//   - view: a named view's contents
//
// # Deterministic Testing
//
// Every run gets a fresh engine with sequential operation IDs and a logical
// clock starting at 1, so the same scenario always produces the same trace.
// Golden files under testdata/golden hold one line per event:
//
//	1 items add-before op-1 "A"
//	2 items add op-1 "A"
package harness
