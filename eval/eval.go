// Package eval executes contract expressions in-process against the entity
// runtime. It is the executable twin of the compiler backends: same variant
// coverage, same entity-query routing, same historical-snapshot semantics,
// but producing values instead of source fragments.
package eval

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vowlang/vow/runtime"
	"github.com/vowlang/vow/spec"
)

// ErrUnsupported marks expressions the evaluator cannot execute. Callers
// distinguish it from ordinary evaluation failures: an unsupported clause
// is scored partial, a failed one is scored failed.
var ErrUnsupported = errors.New("unsupported expression")

// Env is the evaluation environment for one clause.
type Env struct {
	// Input is the invocation input, usually a map of field values.
	Input any
	// Result is the invocation output. Nil until the operation has run.
	Result any
	// Store is the live entity state.
	Store *runtime.Context
	// Old is the pre-invocation snapshot. Nil if no capture was taken;
	// evaluating an old(...) expression then fails rather than silently
	// reading live state.
	Old *runtime.StateCapture
	// Vars carries externally bound names, if any.
	Vars map[string]any
}

// entitySource is satisfied by both the live store and the snapshot.
type entitySource interface {
	Entity(name string) *runtime.EntityProxy
}

// Func is the value a lambda expression evaluates to.
type Func func(args ...any) (any, error)

// Evaluate runs one expression under env and returns its value.
func Evaluate(e spec.Expr, env *Env) (any, error) {
	s := scope{env: env, vars: env.Vars}
	return s.eval(e)
}

// Bool runs one expression and reduces the value to its truthiness.
func Bool(e spec.Expr, env *Env) (bool, error) {
	v, err := Evaluate(e, env)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// scope is the per-traversal state: the shared environment, the historical
// flag, and the variable bindings visible at this point of the tree.
type scope struct {
	env   *Env
	inOld bool
	vars  map[string]any
}

func (s scope) withOld() scope {
	s.inOld = true
	return s
}

func (s scope) withVar(name string, v any) scope {
	vars := make(map[string]any, len(s.vars)+1)
	for k, val := range s.vars {
		vars[k] = val
	}
	vars[name] = v
	s.vars = vars
	return s
}

func (s scope) source() (entitySource, error) {
	if s.inOld {
		if s.env.Old == nil {
			return nil, errors.New("old(...) used but no pre-state snapshot was captured")
		}
		return s.env.Old, nil
	}
	if s.env.Store == nil {
		return nil, errors.New("entity query without a store")
	}
	return s.env.Store, nil
}

func (s scope) eval(e spec.Expr) (any, error) {
	switch n := e.(type) {
	case *spec.Ident:
		if v, ok := s.vars[n.Name]; ok {
			return v, nil
		}
		if src, err := s.source(); err == nil && s.isEntity(n.Name) {
			return recordsToAny(src.Entity(n.Name).GetAll()), nil
		}
		return nil, fmt.Errorf("%w: unbound identifier %q", ErrUnsupported, n.Name)

	case *spec.StringLit:
		return n.Value, nil

	case *spec.NumberLit:
		return n.Value, nil

	case *spec.BoolLit:
		return n.Value, nil

	case *spec.NullLit:
		return nil, nil

	case *spec.Binary:
		return s.evalBinary(n)

	case *spec.Unary:
		operand, err := s.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "not":
			return !Truthy(operand), nil
		case "-":
			f, ok := toFloat(operand)
			if !ok {
				return nil, fmt.Errorf("negating non-numeric value %s", spec.RenderValue(operand))
			}
			return -f, nil
		default:
			return nil, fmt.Errorf("%w: unary operator %q", ErrUnsupported, n.Op)
		}

	case *spec.Call:
		return s.evalCall(n)

	case *spec.Member:
		target, err := s.eval(n.Target)
		if err != nil {
			return nil, err
		}
		if n.Property == "length" {
			return lengthOf(target)
		}
		return memberOf(target, n.Property), nil

	case *spec.Index:
		return s.evalIndex(n)

	case *spec.Quantifier:
		return s.evalQuantifier(n)

	case *spec.Conditional:
		cond, err := s.eval(n.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return s.eval(n.Then)
		}
		return s.eval(n.Else)

	case *spec.Old:
		// Idempotent: nesting old inside old changes nothing.
		return s.withOld().eval(n.Inner)

	case *spec.ResultRef:
		return s.env.Result, nil

	case *spec.InputRef:
		return s.env.Input, nil

	case *spec.Lambda:
		return s.lambdaValue(n), nil

	case *spec.ListLit:
		elems := make([]any, len(n.Elems))
		for i, el := range n.Elems {
			v, err := s.eval(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return elems, nil

	default:
		return nil, fmt.Errorf("%w: variant %T", ErrUnsupported, e)
	}
}

func (s scope) evalBinary(n *spec.Binary) (any, error) {
	// and/or short-circuit like their compiled counterparts.
	switch n.Op {
	case "and":
		left, err := s.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return false, nil
		}
		right, err := s.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case "or":
		left, err := s.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			return true, nil
		}
		right, err := s.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case "implies":
		left, err := s.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return true, nil
		}
		right, err := s.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := s.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := s.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return spec.Equal(left, right), nil
	case "!=":
		return !spec.Equal(left, right), nil
	case "<", "<=", ">", ">=":
		cmp, err := compare(left, right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case "+", "-", "*", "/", "%":
		return arith(n.Op, left, right)
	default:
		return nil, fmt.Errorf("%w: binary operator %q", ErrUnsupported, n.Op)
	}
}

func (s scope) evalCall(n *spec.Call) (any, error) {
	if entity, method, ok := s.entityQuery(n); ok {
		return s.evalEntityQuery(entity, method, n.Args)
	}

	if member, ok := n.Fn.(*spec.Member); ok && len(n.Args) == 1 {
		target, err := s.eval(member.Target)
		if err != nil {
			return nil, err
		}
		arg, err := s.eval(n.Args[0])
		if err != nil {
			return nil, err
		}
		ts, tok := target.(string)
		as, aok := arg.(string)
		if tok && aok {
			switch member.Property {
			case "contains":
				return strings.Contains(ts, as), nil
			case "startsWith":
				return strings.HasPrefix(ts, as), nil
			case "endsWith":
				return strings.HasSuffix(ts, as), nil
			}
		}
	}

	return nil, fmt.Errorf("%w: call %s", ErrUnsupported, spec.Format(n.Fn))
}

// entityQuery mirrors the compiler's recognition rule: the receiver is a
// known entity name not shadowed by a bound variable, and the method is one
// of the entity runtime's four queries.
func (s scope) entityQuery(call *spec.Call) (entity, method string, ok bool) {
	member, isMember := call.Fn.(*spec.Member)
	if !isMember || !spec.EntityMethods[member.Property] {
		return "", "", false
	}
	ident, isIdent := member.Target.(*spec.Ident)
	if !isIdent || !s.isEntity(ident.Name) {
		return "", "", false
	}
	if _, shadowed := s.vars[ident.Name]; shadowed {
		return "", "", false
	}
	return ident.Name, member.Property, true
}

func (s scope) isEntity(name string) bool {
	if s.env.Store != nil {
		for _, n := range s.env.Store.EntityNames() {
			if n == name {
				return true
			}
		}
	}
	return false
}

func (s scope) evalEntityQuery(entity, method string, args []spec.Expr) (any, error) {
	src, err := s.source()
	if err != nil {
		return nil, err
	}
	proxy := src.Entity(entity)

	if method == "getAll" {
		return recordsToAny(proxy.GetAll()), nil
	}

	criteria, err := s.criteria(entity, method, args)
	if err != nil {
		return nil, err
	}

	switch method {
	case "exists":
		return proxy.Exists(criteria), nil
	case "lookup":
		rec := proxy.Lookup(criteria)
		if rec == nil {
			return nil, nil
		}
		return map[string]any(rec), nil
	default: // count
		return proxy.Count(criteria), nil
	}
}

// criteria interprets query arguments as field == value pairs. A nil
// criteria map means "match everything", which is what a bare count() gets.
func (s scope) criteria(entity, method string, args []spec.Expr) (runtime.Record, error) {
	if len(args) == 0 {
		return nil, nil
	}
	criteria := make(runtime.Record, len(args))
	for _, arg := range args {
		bin, ok := arg.(*spec.Binary)
		if !ok || bin.Op != "==" {
			return nil, fmt.Errorf("%w: entity query %s.%s with non-criteria arguments", ErrUnsupported, entity, method)
		}
		field, ok := bin.Left.(*spec.Ident)
		if !ok {
			return nil, fmt.Errorf("%w: entity query %s.%s with non-criteria arguments", ErrUnsupported, entity, method)
		}
		v, err := s.eval(bin.Right)
		if err != nil {
			return nil, err
		}
		criteria[field.Name] = v
	}
	return criteria, nil
}

func (s scope) evalIndex(n *spec.Index) (any, error) {
	target, err := s.eval(n.Target)
	if err != nil {
		return nil, err
	}
	key, err := s.eval(n.Key)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case []any:
		i, ok := toFloat(key)
		idx := int(i)
		if !ok || float64(idx) != i || idx < 0 || idx >= len(t) {
			return nil, fmt.Errorf("index %s out of range for list of %d", spec.RenderValue(key), len(t))
		}
		return t[idx], nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("indexing map with non-string key %s", spec.RenderValue(key))
		}
		return t[k], nil
	case string:
		i, ok := toFloat(key)
		idx := int(i)
		if !ok || float64(idx) != i || idx < 0 || idx >= len(t) {
			return nil, fmt.Errorf("index %s out of range for string of length %d", spec.RenderValue(key), len(t))
		}
		return string(t[idx]), nil
	default:
		return nil, fmt.Errorf("%w: indexing %T", ErrUnsupported, target)
	}
}

func (s scope) evalQuantifier(n *spec.Quantifier) (any, error) {
	coll, err := s.eval(n.Collection)
	if err != nil {
		return nil, err
	}
	items, err := asList(coll)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, item := range items {
		hit, err := s.withVar(n.Var, item).eval(n.Predicate)
		if err != nil {
			return nil, err
		}
		ok := Truthy(hit)

		switch n.Kind {
		case spec.QuantAll:
			if !ok {
				return false, nil
			}
		case spec.QuantAny:
			if ok {
				return true, nil
			}
		case spec.QuantNone:
			if ok {
				return false, nil
			}
		case spec.QuantCount:
			if ok {
				count++
			}
		default:
			return nil, fmt.Errorf("%w: quantifier %q", ErrUnsupported, n.Kind)
		}
	}

	switch n.Kind {
	case spec.QuantAll, spec.QuantNone:
		return true, nil
	case spec.QuantAny:
		return false, nil
	default:
		return count, nil
	}
}

func (s scope) lambdaValue(n *spec.Lambda) Func {
	captured := s
	return func(args ...any) (any, error) {
		if len(args) != len(n.Params) {
			return nil, fmt.Errorf("lambda expects %d arguments, got %d", len(n.Params), len(args))
		}
		inner := captured
		for i, p := range n.Params {
			inner = inner.withVar(p, args[i])
		}
		return inner.eval(n.Body)
	}
}

// Truthy reduces any evaluated value to a boolean the way the generated
// helper runtimes do: nil and zero values are false, everything else true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// compare orders two values. Numbers compare numerically, strings
// lexicographically; everything else is an evaluation failure.
func compare(a, b any) (int, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), nil
	}
	return 0, fmt.Errorf("cannot order %s against %s", spec.RenderValue(a), spec.RenderValue(b))
}

func arith(op string, a, b any) (any, error) {
	// String concatenation rides on +.
	if op == "+" {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				return as + bs, nil
			}
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("arithmetic %q on non-numeric values %s, %s", op, spec.RenderValue(a), spec.RenderValue(b))
	}

	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	case "/":
		if bf == 0 {
			return nil, errors.New("division by zero")
		}
		return af / bf, nil
	default: // %
		if bf == 0 {
			return nil, errors.New("modulo by zero")
		}
		return math.Mod(af, bf), nil
	}
}

func lengthOf(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return len(t), nil
	case []any:
		return len(t), nil
	case map[string]any:
		return len(t), nil
	default:
		return nil, fmt.Errorf("length of non-collection value %s", spec.RenderValue(v))
	}
}

// memberOf reads a field off a record. Missing fields and non-record
// targets yield nil so chained access degrades to a comparison against
// nothing instead of aborting the clause.
func memberOf(v any, field string) any {
	if m, ok := v.(map[string]any); ok {
		return m[field]
	}
	return nil
}

func asList(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("quantifying over non-list value %s", spec.RenderValue(v))
	}
}

func recordsToAny(records []runtime.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = map[string]any(r)
	}
	return out
}
