// Package specio decodes behavior definitions from their CUE interchange
// form. The interchange form is data, not surface syntax: expression
// trees arrive as tagged structs, already parsed and type-checked
// upstream. Decoding here is structural only.
package specio

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/vowlang/vow/spec"
)

// DecodeBehaviors parses a CUE document containing a "behaviors" struct
// keyed by behavior name.
//
//	behaviors: deposit: {
//	    output: "DepositResult"
//	    input: amount: {type: "number", required: true}
//	    ...
//	}
func DecodeBehaviors(src string) ([]spec.Behavior, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("behaviors"))
	if !root.Exists() {
		return nil, &DecodeError{
			Field:   "behaviors",
			Message: "behaviors struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var behaviors []spec.Behavior
	for iter.Next() {
		b, err := DecodeBehavior(iter.Value())
		if err != nil {
			return nil, err
		}
		behaviors = append(behaviors, *b)
	}
	if len(behaviors) == 0 {
		return nil, &DecodeError{
			Field:   "behaviors",
			Message: "at least one behavior is required",
			Pos:     root.Pos(),
		}
	}
	return behaviors, nil
}

// DecodeBehavior parses a single behavior struct. The behavior name comes
// from the struct label (the path selector).
func DecodeBehavior(v cue.Value) (*spec.Behavior, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	b := &spec.Behavior{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		b.Name = labels[len(labels)-1].String()
	}
	if b.Name == "" {
		return nil, &DecodeError{
			Field:   "name",
			Message: "behavior name label is required",
			Pos:     v.Pos(),
		}
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		b.Description = desc
	}

	outputVal := v.LookupPath(cue.ParsePath("output"))
	if !outputVal.Exists() {
		return nil, &DecodeError{
			Field:   b.Name + ".output",
			Message: "output type name is required",
			Pos:     v.Pos(),
		}
	}
	output, err := outputVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	b.Output = output

	b.Input, err = decodeInput(v)
	if err != nil {
		return nil, err
	}

	b.Preconditions, err = decodeExprList(v.LookupPath(cue.ParsePath("requires")))
	if err != nil {
		return nil, err
	}
	b.Postconditions, err = decodeEnsures(v.LookupPath(cue.ParsePath("ensures")))
	if err != nil {
		return nil, err
	}
	b.Invariants, err = decodeExprList(v.LookupPath(cue.ParsePath("invariants")))
	if err != nil {
		return nil, err
	}
	b.Temporal, err = decodeExprList(v.LookupPath(cue.ParsePath("temporal")))
	if err != nil {
		return nil, err
	}
	b.Errors, err = decodeErrors(v)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// decodeInput reads the input struct. Field order follows source order.
func decodeInput(v cue.Value) ([]spec.Field, error) {
	inputVal := v.LookupPath(cue.ParsePath("input"))
	if !inputVal.Exists() {
		return nil, nil
	}

	iter, err := inputVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []spec.Field
	for iter.Next() {
		fieldVal := iter.Value()
		field := spec.Field{Name: iter.Label(), Required: true}

		typeVal := fieldVal.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &DecodeError{
				Field:   "input." + field.Name,
				Message: "field type is required",
				Pos:     fieldVal.Pos(),
			}
		}
		field.Type, err = typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		if reqVal := fieldVal.LookupPath(cue.ParsePath("required")); reqVal.Exists() {
			field.Required, err = reqVal.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// decodeEnsures reads the postcondition blocks: a list of {on, all}
// structs where "on" is success, any_error, or a declared error name.
func decodeEnsures(v cue.Value) ([]spec.PostBlock, error) {
	if !v.Exists() {
		return nil, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var blocks []spec.PostBlock
	for iter.Next() {
		blockVal := iter.Value()

		onVal := blockVal.LookupPath(cue.ParsePath("on"))
		if !onVal.Exists() {
			return nil, &DecodeError{
				Field:   "ensures",
				Message: "on condition is required",
				Pos:     blockVal.Pos(),
			}
		}
		on, err := onVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		predicates, err := decodeExprList(blockVal.LookupPath(cue.ParsePath("all")))
		if err != nil {
			return nil, err
		}
		if len(predicates) == 0 {
			return nil, &DecodeError{
				Field:   "ensures",
				Message: "all list is required and must be non-empty",
				Pos:     blockVal.Pos(),
			}
		}

		blocks = append(blocks, spec.PostBlock{
			Condition:  spec.Condition(on),
			Predicates: predicates,
		})
	}
	return blocks, nil
}

// decodeErrors reads the errors struct keyed by error name.
func decodeErrors(v cue.Value) ([]spec.ErrorSpec, error) {
	errorsVal := v.LookupPath(cue.ParsePath("errors"))
	if !errorsVal.Exists() {
		return nil, nil
	}

	iter, err := errorsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []spec.ErrorSpec
	for iter.Next() {
		errVal := iter.Value()
		es := spec.ErrorSpec{Name: iter.Label()}

		triggerVal := errVal.LookupPath(cue.ParsePath("trigger"))
		if !triggerVal.Exists() {
			return nil, &DecodeError{
				Field:   "errors." + es.Name,
				Message: "trigger description is required",
				Pos:     errVal.Pos(),
			}
		}
		es.Trigger, err = triggerVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		if retVal := errVal.LookupPath(cue.ParsePath("retriable")); retVal.Exists() {
			es.Retriable, err = retVal.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}

		if whenVal := errVal.LookupPath(cue.ParsePath("when")); whenVal.Exists() {
			es.When, err = decodeExpr(whenVal)
			if err != nil {
				return nil, err
			}
		}
		specs = append(specs, es)
	}
	return specs, nil
}

func decodeExprList(v cue.Value) ([]spec.Expr, error) {
	if !v.Exists() {
		return nil, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var exprs []spec.Expr
	for iter.Next() {
		e, err := decodeExpr(iter.Value())
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// DecodeError is a decoding failure with source position.
type DecodeError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DecodeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &DecodeError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
