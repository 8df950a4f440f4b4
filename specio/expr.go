package specio

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/vowlang/vow/spec"
)

// decodeExpr parses one expression node. Nodes are tagged structs:
//
//	{kind: "binary", op: ">", left: {...}, right: {...}}
//
// The kind set is closed; an unknown kind is a decode error, mirroring
// the sealed variant set on the Go side.
func decodeExpr(v cue.Value) (spec.Expr, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kind, err := stringField(v, "kind")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "ident":
		name, err := stringField(v, "name")
		if err != nil {
			return nil, err
		}
		return &spec.Ident{Name: name}, nil

	case "string":
		val, err := stringField(v, "value")
		if err != nil {
			return nil, err
		}
		return &spec.StringLit{Value: val}, nil

	case "number":
		numVal := v.LookupPath(cue.ParsePath("value"))
		if !numVal.Exists() {
			return nil, missingField(v, kind, "value")
		}
		f, err := numVal.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &spec.NumberLit{Value: f}, nil

	case "bool":
		boolVal := v.LookupPath(cue.ParsePath("value"))
		if !boolVal.Exists() {
			return nil, missingField(v, kind, "value")
		}
		b, err := boolVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &spec.BoolLit{Value: b}, nil

	case "null":
		return &spec.NullLit{}, nil

	case "binary":
		op, err := stringField(v, "op")
		if err != nil {
			return nil, err
		}
		if !spec.BinaryOps[op] {
			return nil, &DecodeError{
				Field:   "binary.op",
				Message: fmt.Sprintf("unknown operator %q", op),
				Pos:     v.Pos(),
			}
		}
		left, err := exprField(v, kind, "left")
		if err != nil {
			return nil, err
		}
		right, err := exprField(v, kind, "right")
		if err != nil {
			return nil, err
		}
		return &spec.Binary{Op: op, Left: left, Right: right}, nil

	case "unary":
		op, err := stringField(v, "op")
		if err != nil {
			return nil, err
		}
		operand, err := exprField(v, kind, "operand")
		if err != nil {
			return nil, err
		}
		return &spec.Unary{Op: op, Operand: operand}, nil

	case "call":
		fn, err := exprField(v, kind, "fn")
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(v.LookupPath(cue.ParsePath("args")))
		if err != nil {
			return nil, err
		}
		return &spec.Call{Fn: fn, Args: args}, nil

	case "member":
		target, err := exprField(v, kind, "target")
		if err != nil {
			return nil, err
		}
		property, err := stringField(v, "property")
		if err != nil {
			return nil, err
		}
		return &spec.Member{Target: target, Property: property}, nil

	case "index":
		target, err := exprField(v, kind, "target")
		if err != nil {
			return nil, err
		}
		key, err := exprField(v, kind, "key")
		if err != nil {
			return nil, err
		}
		return &spec.Index{Target: target, Key: key}, nil

	case "quantifier":
		quant, err := stringField(v, "quant")
		if err != nil {
			return nil, err
		}
		qk := spec.QuantKind(quant)
		switch qk {
		case spec.QuantAll, spec.QuantAny, spec.QuantNone, spec.QuantCount:
		default:
			return nil, &DecodeError{
				Field:   "quantifier.quant",
				Message: fmt.Sprintf("unknown quantifier kind %q", quant),
				Pos:     v.Pos(),
			}
		}
		variable, err := stringField(v, "var")
		if err != nil {
			return nil, err
		}
		collection, err := exprField(v, kind, "collection")
		if err != nil {
			return nil, err
		}
		predicate, err := exprField(v, kind, "predicate")
		if err != nil {
			return nil, err
		}
		return &spec.Quantifier{Kind: qk, Var: variable, Collection: collection, Predicate: predicate}, nil

	case "conditional":
		cond, err := exprField(v, kind, "cond")
		if err != nil {
			return nil, err
		}
		thenE, err := exprField(v, kind, "then")
		if err != nil {
			return nil, err
		}
		elseE, err := exprField(v, kind, "else")
		if err != nil {
			return nil, err
		}
		return &spec.Conditional{Cond: cond, Then: thenE, Else: elseE}, nil

	case "old":
		inner, err := exprField(v, kind, "inner")
		if err != nil {
			return nil, err
		}
		return &spec.Old{Inner: inner}, nil

	case "result":
		return &spec.ResultRef{}, nil

	case "input":
		return &spec.InputRef{}, nil

	case "lambda":
		params, err := stringListField(v, "params")
		if err != nil {
			return nil, err
		}
		body, err := exprField(v, kind, "body")
		if err != nil {
			return nil, err
		}
		return &spec.Lambda{Params: params, Body: body}, nil

	case "list":
		elems, err := decodeExprList(v.LookupPath(cue.ParsePath("elems")))
		if err != nil {
			return nil, err
		}
		return &spec.ListLit{Elems: elems}, nil

	default:
		return nil, &DecodeError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown expression kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

func stringField(v cue.Value, name string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(name))
	if !fieldVal.Exists() {
		return "", &DecodeError{
			Field:   name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringListField(v cue.Value, name string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(name))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var items []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		items = append(items, s)
	}
	return items, nil
}

func exprField(v cue.Value, kind, name string) (spec.Expr, error) {
	fieldVal := v.LookupPath(cue.ParsePath(name))
	if !fieldVal.Exists() {
		return nil, missingField(v, kind, name)
	}
	return decodeExpr(fieldVal)
}

func missingField(v cue.Value, kind, name string) error {
	return &DecodeError{
		Field:   kind + "." + name,
		Message: name + " is required",
		Pos:     v.Pos(),
	}
}
