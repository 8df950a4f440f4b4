// Package scenario runs YAML-defined end-to-end flows against an
// implementation: seed entity state, invoke the behavior one or more
// times, check each outcome and the final state. Scenario outcomes score
// in their own weighted category.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one end-to-end flow.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Behavior is the behavior under test.
	Behavior string `yaml:"behavior"`

	// Setup seeds entity records before the flow runs.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Steps is the invocation flow. Each step may check the outcome.
	Steps []Step `yaml:"steps"`

	// FinalState asserts on the entity store after the flow completes.
	FinalState []StateAssertion `yaml:"final_state,omitempty"`
}

// SetupStep seeds one entity with records.
type SetupStep struct {
	Entity  string           `yaml:"entity"`
	Records []map[string]any `yaml:"records"`
}

// Step invokes the behavior once.
type Step struct {
	// Input is the invocation input.
	Input map[string]any `yaml:"input"`

	// Expect validates the outcome. Nil means the step only has to
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Case is "success" or a declared error name.
	Case string `yaml:"case"`

	// Result holds expected result fields. Subset match: only listed
	// fields are compared.
	Result map[string]any `yaml:"result,omitempty"`
}

// StateAssertion checks entity state after the flow.
type StateAssertion struct {
	Entity string `yaml:"entity"`

	// Where filters records by exact criteria match.
	Where map[string]any `yaml:"where,omitempty"`

	// Count, when set, is the expected number of matching records.
	Count *int `yaml:"count,omitempty"`

	// Expect holds expected field values of the first matching record.
	// Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Parse decodes a scenario document. Unknown fields are rejected so a
// typo like "step:" for "steps:" fails loudly instead of silently
// skipping the flow.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Load reads and parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Behavior == "" {
		return fmt.Errorf("behavior is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("step %d: expect.case is required", i+1)
		}
	}
	for i, sa := range s.FinalState {
		if sa.Entity == "" {
			return fmt.Errorf("final_state %d: entity is required", i+1)
		}
		if sa.Count == nil && len(sa.Expect) == 0 {
			return fmt.Errorf("final_state %d: count or expect is required", i+1)
		}
	}
	return nil
}
