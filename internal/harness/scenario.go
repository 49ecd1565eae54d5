package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultCollection is used when a scenario does not name a collection.
const DefaultCollection = "items"

// Scenario defines a collection test scenario.
// A scenario drives one or more collections through a flow of steps and
// asserts on the resulting event trace and final contents.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection is the default collection for steps and assertions.
	Collection string `yaml:"collection,omitempty"`

	// Specs lists CUE spec directories to compile. Paths are relative to
	// the base path given to LoadScenarioWithBasePath.
	Specs []string `yaml:"specs,omitempty"`

	// Spec is an inline CUE source, compiled after Specs.
	Spec string `yaml:"spec,omitempty"`

	// Features lists the query features bound on every collection.
	Features []string `yaml:"features,omitempty"`

	// Cancel rules cancel matching operations at their before event.
	Cancel []CancelRule `yaml:"cancel,omitempty"`

	// MaxSteps bounds each drain. Zero uses the engine default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Setup steps run before cancel rules are installed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the main steps.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and contents.
	Assertions []Assertion `yaml:"assertions"`
}

// CancelRule cancels operations whose item matches When.
type CancelRule struct {
	// Event is add-before or remove-before.
	Event string `yaml:"event"`

	// When is a match pattern; absent matches every item.
	When any `yaml:"when,omitempty"`

	// Label names the canceled operations for resume steps and
	// suspended assertions.
	Label string `yaml:"label"`

	// Resume is never (default), immediate or deferred.
	Resume string `yaml:"resume,omitempty"`

	// Collection defaults to the scenario collection.
	Collection string `yaml:"collection,omitempty"`
}

// Step is one collection operation. Exactly one action field is set.
type Step struct {
	Collection string `yaml:"collection,omitempty"`

	Add         []any       `yaml:"add,omitempty"`
	AddFirst    []any       `yaml:"add_first,omitempty"`
	AddAt       *AddAtStep  `yaml:"add_at,omitempty"`
	Remove      []any       `yaml:"remove,omitempty"`
	RemoveAt    *int        `yaml:"remove_at,omitempty"`
	RemoveFirst bool        `yaml:"remove_first,omitempty"`
	RemoveLast  bool        `yaml:"remove_last,omitempty"`
	RemoveRange *RangeStep  `yaml:"remove_range,omitempty"`
	Flush       bool        `yaml:"flush,omitempty"`
	Resume      string      `yaml:"resume,omitempty"`
	Drain       bool        `yaml:"drain,omitempty"`
	Call        *CallStep   `yaml:"call,omitempty"`
	Expect      *StepExpect `yaml:"expect,omitempty"`
}

// AddAtStep inserts items starting at Index.
type AddAtStep struct {
	Index int   `yaml:"index"`
	Items []any `yaml:"items"`
}

// RangeStep removes Length items at Start.
type RangeStep struct {
	Start  int `yaml:"start"`
	Length int `yaml:"length"`
}

// CallStep calls a bound query feature.
type CallStep struct {
	Feature string `yaml:"feature"`
	Args    []any  `yaml:"args,omitempty"`
}

// StepExpect validates a single step.
type StepExpect struct {
	// Error is a substring of the expected error. Steps without it must
	// not fail.
	Error string `yaml:"error,omitempty"`

	// Flushed is the expected return value of a flush step.
	Flushed *bool `yaml:"flushed,omitempty"`

	// Result is the expected return value of a call step.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final contents.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Collection defaults to the scenario collection. Trace assertions
	// without it cover every collection.
	Collection string `yaml:"collection,omitempty"`

	// Event and Item select trace events (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`
	Item  any    `yaml:"item,omitempty"`

	// Events is the expected event name order (trace_order,
	// trace_sequence).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of events (trace_count) or suspended
	// operations (suspended).
	Count *int `yaml:"count,omitempty"`

	// Labels are the cancel rule labels expected among the suspended
	// operations (suspended).
	Labels []string `yaml:"labels,omitempty"`

	// View names the view to evaluate (view).
	View string `yaml:"view,omitempty"`

	// Items are the expected items (items, view).
	Items []any `yaml:"items,omitempty"`
}

// Assertion type constants.
const (
	AssertItems         = "items"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceSequence = "trace_sequence"
	AssertTraceCount    = "trace_count"
	AssertSuspended     = "suspended"
	AssertView          = "view"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}
	for _, specPath := range scenario.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: spec path not found: %s", specPath)
		}
	}

	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Collection == "" {
		scenario.Collection = DefaultCollection
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	for i, rule := range s.Cancel {
		if rule.Event != "add-before" && rule.Event != "remove-before" {
			return fmt.Errorf("cancel[%d]: event must be add-before or remove-before, got %q", i, rule.Event)
		}
		if rule.Label == "" {
			return fmt.Errorf("cancel[%d]: label is required", i)
		}
		switch rule.Resume {
		case "", "never", "immediate", "deferred":
		default:
			return fmt.Errorf("cancel[%d]: unknown resume policy %q", i, rule.Resume)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	actions := 0
	for _, set := range []bool{
		step.Add != nil,
		step.AddFirst != nil,
		step.AddAt != nil,
		step.Remove != nil,
		step.RemoveAt != nil,
		step.RemoveFirst,
		step.RemoveLast,
		step.RemoveRange != nil,
		step.Flush,
		step.Resume != "",
		step.Drain,
		step.Call != nil,
	} {
		if set {
			actions++
		}
	}
	switch {
	case actions == 0:
		return fmt.Errorf("step has no action")
	case actions > 1:
		return fmt.Errorf("step has %d actions, expected exactly one", actions)
	}

	if step.Call != nil && step.Call.Feature == "" {
		return fmt.Errorf("call: feature is required")
	}
	if step.RemoveRange != nil && step.RemoveRange.Length < 0 {
		return fmt.Errorf("remove_range: length must be non-negative")
	}
	if step.Expect != nil && step.Expect.Flushed != nil && !step.Flush {
		return fmt.Errorf("expect.flushed is only valid on flush steps")
	}
	if step.Expect != nil && step.Expect.Result != nil && step.Call == nil {
		return fmt.Errorf("expect.result is only valid on call steps")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertItems:
		if a.Items == nil {
			return fmt.Errorf("assertions[%d]: items is required for items (use [] for empty)", index)
		}
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder, AssertTraceSequence:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertSuspended:
		if a.Count == nil && a.Labels == nil {
			return fmt.Errorf("assertions[%d]: count or labels is required for suspended", index)
		}
	case AssertView:
		if a.View == "" {
			return fmt.Errorf("assertions[%d]: view is required for view", index)
		}
		if a.Items == nil {
			return fmt.Errorf("assertions[%d]: items is required for view (use [] for empty)", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
