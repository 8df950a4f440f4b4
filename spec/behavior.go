package spec

// Behavior is a compiled behavioral contract: a named operation with typed
// inputs and outputs, pre/postconditions and error cases. Behaviors arrive
// from the upstream parser/type checker already validated; this module
// consumes them read-only.
type Behavior struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Input       []Field     `json:"input"`
	Output      string      `json:"output"` // success type name
	Errors      []ErrorSpec `json:"errors,omitempty"`

	Preconditions  []Expr      `json:"-"`
	Postconditions []PostBlock `json:"-"`

	// Invariants and Temporal hold behavior-scoped invariant and temporal
	// constraint expressions. They score in their own weighted categories.
	Invariants []Expr `json:"-"`
	Temporal   []Expr `json:"-"`
}

// Field is a named, typed input field.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// ErrorSpec describes one declared error case of a behavior.
type ErrorSpec struct {
	Name      string `json:"name"`
	Trigger   string `json:"trigger"` // human-readable trigger condition
	Retriable bool   `json:"retriable"`

	// When optionally carries the structured trigger condition. Input
	// synthesis uses it to construct a triggering input; when nil the
	// error binding is emitted with a manual-completion marker.
	When Expr `json:"-"`
}

// Condition tags a postcondition block with the outcome it applies to.
// It is either CondSuccess, CondAnyError, or a declared error name.
type Condition string

// Predefined condition tags.
const (
	CondSuccess  Condition = "success"
	CondAnyError Condition = "any_error"
)

// PostBlock is a group of postcondition predicates guarded by an outcome
// condition. A success-tagged predicate is skipped when the behavior
// actually returned an error, and vice versa.
type PostBlock struct {
	Condition  Condition `json:"condition"`
	Predicates []Expr    `json:"-"`
}

// Matches reports whether the block's condition applies to the given
// outcome case ("success" or an error name).
func (b PostBlock) Matches(outcomeCase string) bool {
	return b.Condition.Matches(outcomeCase)
}

// Matches reports whether the condition applies to the given outcome case.
func (c Condition) Matches(outcomeCase string) bool {
	switch c {
	case CondSuccess:
		return outcomeCase == string(CondSuccess)
	case CondAnyError:
		return outcomeCase != string(CondSuccess)
	default:
		return string(c) == outcomeCase
	}
}

// EntityNames builds a lookup set from a list of entity names.
func EntityNames(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
