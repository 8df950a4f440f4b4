package codegen

import (
	"encoding/json"
	"fmt"

	"github.com/vowlang/vow/binder"
)

// fixtureFile is the JSON document both renderers emit alongside the test
// source. Generated tests load inputs from here instead of embedding them,
// so a person completing a needs_manual entry edits data, not code.
type fixtureFile struct {
	Behavior       string                 `json:"behavior"`
	ValidInput     map[string]any         `json:"valid_input"`
	Preconditions  []fixturePrecondition  `json:"preconditions"`
	Postconditions []fixturePostcondition `json:"postconditions"`
	Errors         []fixtureError         `json:"errors"`
}

type fixturePrecondition struct {
	Description    string         `json:"description"`
	ViolatingInput map[string]any `json:"violating_input"`
	NeedsManual    bool           `json:"needs_manual,omitempty"`
}

type fixturePostcondition struct {
	Description string `json:"description"`
	Condition   string `json:"condition"`
	// ViolatingResult falsifies the predicate; absent when it could not
	// be inverted, in which case no violation test is rendered.
	ViolatingResult map[string]any `json:"violating_result,omitempty"`
}

type fixtureError struct {
	Name            string         `json:"name"`
	Retriable       bool           `json:"retriable"`
	TriggeringInput map[string]any `json:"triggering_input"`
	NeedsManual     bool           `json:"needs_manual,omitempty"`
}

func renderFixture(binding binder.Binding) (Artifact, error) {
	doc := fixtureFile{
		Behavior:   binding.Behavior,
		ValidInput: binding.ValidInput,
	}
	for _, pre := range binding.Preconditions {
		doc.Preconditions = append(doc.Preconditions, fixturePrecondition{
			Description:    pre.Description,
			ViolatingInput: pre.Violating.Fields,
			NeedsManual:    pre.Violating.NeedsManual,
		})
	}
	for _, post := range binding.Postconditions {
		doc.Postconditions = append(doc.Postconditions, fixturePostcondition{
			Description:     post.Description,
			Condition:       string(post.Condition),
			ViolatingResult: post.ViolatingResult,
		})
	}
	for _, eb := range binding.Errors {
		doc.Errors = append(doc.Errors, fixtureError{
			Name:            eb.Name,
			Retriable:       eb.Retriable,
			TriggeringInput: eb.Triggering.Fields,
			NeedsManual:     eb.Triggering.NeedsManual,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("marshaling fixture for %s: %w", binding.Behavior, err)
	}
	return Artifact{
		Kind:    KindFixture,
		Path:    fmt.Sprintf("fixtures/%s.json", snakeName(binding.Behavior)),
		Content: string(data) + "\n",
	}, nil
}

// ParseFixture reads a rendered fixture document back. Tooling and the
// round-trip tests use it; generated tests have their own loader in the
// helper runtime.
func ParseFixture(content []byte) (behavior string, validInput map[string]any, err error) {
	var doc fixtureFile
	if err := json.Unmarshal(content, &doc); err != nil {
		return "", nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return doc.Behavior, doc.ValidInput, nil
}
