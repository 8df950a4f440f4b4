package binder

import (
	"github.com/vowlang/vow/spec"
)

// fieldConstraint is a recognized `input.field op literal` comparison, the
// only shape synthesis can solve symbolically.
type fieldConstraint struct {
	field string
	op    string
	value any // string, float64, bool or nil
}

// constraintOf recognizes a single solvable comparison over an input field.
// Anything else — quantifiers, entity queries, flipped operands, derived
// values — returns false and the caller degrades to a manual marker.
func constraintOf(e spec.Expr) (fieldConstraint, bool) {
	return constraintOn(e, func(t spec.Expr) bool {
		_, ok := t.(*spec.InputRef)
		return ok
	})
}

// resultConstraintOf is constraintOf over result fields.
func resultConstraintOf(e spec.Expr) (fieldConstraint, bool) {
	return constraintOn(e, func(t spec.Expr) bool {
		_, ok := t.(*spec.ResultRef)
		return ok
	})
}

func constraintOn(e spec.Expr, onTarget func(spec.Expr) bool) (fieldConstraint, bool) {
	bin, ok := e.(*spec.Binary)
	if !ok {
		return fieldConstraint{}, false
	}
	member, ok := bin.Left.(*spec.Member)
	if !ok {
		return fieldConstraint{}, false
	}
	if !onTarget(member.Target) {
		return fieldConstraint{}, false
	}

	var value any
	switch lit := bin.Right.(type) {
	case *spec.StringLit:
		value = lit.Value
	case *spec.NumberLit:
		value = lit.Value
	case *spec.BoolLit:
		value = lit.Value
	case *spec.NullLit:
		value = nil
	default:
		return fieldConstraint{}, false
	}

	switch bin.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return fieldConstraint{field: member.Property, op: bin.Op, value: value}, true
	default:
		return fieldConstraint{}, false
	}
}

// conjuncts flattens a tree of and-nodes into its leaves.
func conjuncts(e spec.Expr) []spec.Expr {
	if bin, ok := e.(*spec.Binary); ok && bin.Op == "and" {
		return append(conjuncts(bin.Left), conjuncts(bin.Right)...)
	}
	return []spec.Expr{e}
}

// satisfying mutates fields so the constraint holds.
func (c fieldConstraint) satisfying(fields map[string]any) bool {
	switch c.op {
	case "==":
		fields[c.field] = c.value
	case "!=":
		fields[c.field] = differentValue(c.value)
	case "<":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n - 1
	case "<=":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n
	case ">":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n + 1
	case ">=":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n
	}
	return true
}

// violating mutates fields so the constraint does not hold: the structural
// inversion of satisfying, sitting exactly on the failing side of each
// boundary.
func (c fieldConstraint) violating(fields map[string]any) bool {
	switch c.op {
	case "==":
		fields[c.field] = differentValue(c.value)
	case "!=":
		fields[c.field] = c.value
	case "<":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n
	case "<=":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n + 1
	case ">":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n
	case ">=":
		n, ok := c.value.(float64)
		if !ok {
			return false
		}
		fields[c.field] = n - 1
	}
	return true
}

func differentValue(v any) any {
	switch t := v.(type) {
	case string:
		return t + "_other"
	case float64:
		return t + 1
	case bool:
		return !t
	default: // nil
		return "not_null"
	}
}

// baseInput seeds one plausible value per declared field from its type.
func baseInput(fields []spec.Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = defaultFor(f.Type)
	}
	return out
}

func defaultFor(typ string) any {
	switch typ {
	case "number", "int", "float", "decimal":
		return float64(1)
	case "boolean", "bool":
		return true
	case "null":
		return nil
	default:
		return "example"
	}
}

// validInput synthesizes an input satisfying every solvable precondition.
// Unsolvable conjuncts are skipped; the result is best-effort.
func validInput(b spec.Behavior) map[string]any {
	fields := baseInput(b.Input)
	for _, pre := range b.Preconditions {
		for _, leaf := range conjuncts(pre) {
			if c, ok := constraintOf(leaf); ok {
				c.satisfying(fields)
			}
		}
	}
	return fields
}

// violatingInput synthesizes an input falsifying target while keeping the
// remaining preconditions satisfied, so the rejection is attributable to
// target alone. Returns NeedsManual when no conjunct of target can be
// inverted.
func violatingInput(b spec.Behavior, target spec.Expr) Input {
	fields := validInput(b)
	for _, leaf := range conjuncts(target) {
		if c, ok := constraintOf(leaf); ok && c.violating(fields) {
			return Input{Fields: fields}
		}
	}
	return Input{Fields: fields, NeedsManual: true}
}

// violatingResult synthesizes a result record falsifying pred. Every
// solvable result conjunct is satisfied first, then one is flipped to its
// failing side, so the falsification is attributable to a single comparison.
// Predicates with no invertible result conjunct return false: nothing can
// prove the harness would catch a violation of them.
func violatingResult(pred spec.Expr) (map[string]any, bool) {
	leaves := conjuncts(pred)
	fields := map[string]any{}
	for _, leaf := range leaves {
		if c, ok := resultConstraintOf(leaf); ok {
			c.satisfying(fields)
		}
	}
	for _, leaf := range leaves {
		if c, ok := resultConstraintOf(leaf); ok && c.violating(fields) {
			return fields, true
		}
	}
	return nil, false
}

// triggeringInput synthesizes an input satisfying an error's trigger
// condition. A nil condition cannot be solved and yields a manual marker.
func triggeringInput(b spec.Behavior, when spec.Expr) Input {
	fields := validInput(b)
	if when == nil {
		return Input{Fields: fields, NeedsManual: true}
	}
	solved := false
	for _, leaf := range conjuncts(when) {
		if c, ok := constraintOf(leaf); ok && c.satisfying(fields) {
			solved = true
		}
	}
	if !solved {
		return Input{Fields: fields, NeedsManual: true}
	}
	return Input{Fields: fields}
}
