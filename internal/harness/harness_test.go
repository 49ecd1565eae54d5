package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartcoll/internal/store"
	"github.com/roach88/smartcoll/internal/value"
)

// projectRoot returns the project root directory.
// Tests run from the package directory, but scenario spec paths are
// relative to the project root.
func projectRoot() string {
	root, _ := filepath.Abs("../..")
	return root
}

func TestScenarioFiles(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", projectRoot())
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		scenario, err := LoadScenarioWithBasePath(path, projectRoot())
		require.NoError(t, err, "failed to load %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed: %v", result.Errors)
			assert.Equal(t, len(result.Trace), result.Recorded)
		})
	}
}

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	result, err := Run(parse(t, `
name: wrong_items
description: "assertion mismatch"
flow:
  - add: ["A"]
assertions:
  - type: items
    items: ["B"]
  - type: trace_count
    event: add
    count: 2
`))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: items")
	assert.Contains(t, result.Errors[0], `Actual: ["A"]`)
	assert.Contains(t, result.Errors[1], "2 occurrences of add")
}

func TestRun_UnexpectedStepError(t *testing.T) {
	result, err := Run(parse(t, `
name: unexpected
description: "resume without a suspended operation"
cancel:
  - event: add-before
    label: never-used
    when: "Z"
flow:
  - resume: never-used
assertions:
  - type: suspended
    count: 0
`))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `flow[0]: unexpected error: no suspended operation labeled "never-used"`)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	result, err := Run(parse(t, `
name: missing_error
description: "expect.error without an error"
flow:
  - add: ["A"]
    expect:
      error: ILLEGAL_RESUME
assertions:
  - type: items
    items: ["A"]
`))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{`flow[0]: expected error containing "ILLEGAL_RESUME", got none`}, result.Errors)
}

func TestRun_ImmediateInteriorResumeIsStepError(t *testing.T) {
	result, err := Run(parse(t, `
name: immediate_interior
description: "an immediate cancel rule on an interior remove reports the illegal resume"
cancel:
  - event: remove-before
    when: "B"
    label: bounce
    resume: immediate
setup:
  - add: ["A", "B", "C"]
flow:
  - remove_at: 1
    expect:
      error: ILLEGAL_RESUME
assertions:
  - type: suspended
    labels: [bounce]
  - type: items
    items: ["A", "B", "C"]
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MultipleCollections(t *testing.T) {
	result, err := Run(parse(t, `
name: two_collections
description: "steps and rules can target any collection"
cancel:
  - event: add-before
    collection: b
    label: hold
flow:
  - add: [1]
    collection: a
  - add: [2]
    collection: b
assertions:
  - type: items
    collection: a
    items: [1]
  - type: items
    collection: b
    items: []
  - type: trace_sequence
    collection: b
    events: [add-before, add-cancel]
  - type: suspended
    collection: b
    labels: [hold]
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []value.Value{value.Int(1)}, result.Items["a"])
	assert.Equal(t, []string{"op-2"}, result.Suspended["b"])
}

func TestRun_DrainQuota(t *testing.T) {
	result, err := Run(parse(t, `
name: quota
description: "drains are bounded by max_steps"
max_steps: 1
cancel:
  - event: add-before
    label: later
    resume: deferred
flow:
  - add: ["A", "B"]
  - drain: true
    expect:
      error: "drain exceeded max steps quota"
assertions:
  - type: items
    items: ["A"]
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnknownFeature(t *testing.T) {
	_, err := Run(parse(t, `
name: bad_feature
description: "unknown features fail the run"
features: [shuffle]
flow:
  - add: ["A"]
assertions:
  - type: items
    items: ["A"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `feature "shuffle" not found`)
}

func TestRun_BadInlineSpec(t *testing.T) {
	_, err := Run(parse(t, `
name: bad_spec
description: "spec errors fail the run"
spec: |
  collection: c: guards: [{event: "add", resume: "never"}]
flow:
  - add: ["A"]
assertions:
  - type: items
    items: ["A"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline spec")
}

func TestRun_WithStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer st.Close()

	result, err := Run(parse(t, `
name: recorded
description: "the trace lands in the given store"
cancel:
  - event: add-before
    when: "B"
    label: hold
flow:
  - add: ["A", "B"]
assertions:
  - type: items
    items: ["A"]
`), WithStore(st, "run-1"))
	require.NoError(t, err)
	require.True(t, result.Pass)

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "recorded", run.Label)

	events, err := st.ReadTrace(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Len(t, events, result.Recorded)

	suspended, err := st.FindSuspended(ctx, "run-1", "items")
	require.NoError(t, err)
	require.Len(t, suspended, 1)
	assert.Equal(t, "op-2", suspended[0].OpID)
}

func TestResult_TraceText(t *testing.T) {
	r := NewResult()
	r.Trace = append(r.Trace,
		TraceEvent{Seq: 1, Collection: "c", Event: "add", OpID: "op-1", Item: value.String("A")},
		TraceEvent{Seq: 2, Collection: "c", Event: "empty"},
	)

	assert.Equal(t, "1 c add op-1 \"A\"\n2 c empty\n", r.TraceText())
}

func TestTraceEvent_MarshalJSON(t *testing.T) {
	ev := TraceEvent{Seq: 3, Collection: "c", Event: "add", OpID: "op-1",
		Item: value.NewObject(value.P("n", value.Int(1)))}

	data, err := ev.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":3,"collection":"c","event":"add","op_id":"op-1","item":{"n":1}}`, string(data))
}
