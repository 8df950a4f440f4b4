package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vowlang/vow/spec"
)

// PythonBackend compiles expressions to Python source fragments for the
// pytest artifacts the Python renderer emits. Python's dynamic typing lets
// most operators pass through with native spelling; only field access goes
// through the vow_get helper so dicts and objects behave alike.
type PythonBackend struct{}

// NewPythonBackend returns the Python expression backend.
func NewPythonBackend() *PythonBackend { return &PythonBackend{} }

// Name implements Backend.
func (b *PythonBackend) Name() string { return "python" }

// Compile implements Backend.
func (b *PythonBackend) Compile(e spec.Expr, ctx Context) Result {
	em := newEmitter()
	code := b.compile(e, ctx, em)
	return em.result(code)
}

func (b *PythonBackend) compile(e spec.Expr, ctx Context, em *emitter) string {
	switch n := e.(type) {
	case *spec.Ident:
		if rendered, ok := ctx.Var(n.Name); ok {
			return rendered
		}
		if ctx.IsEntity(n.Name) {
			return fmt.Sprintf("%s.entity(%q).get_all()", b.receiver(ctx), n.Name)
		}
		return n.Name

	case *spec.StringLit:
		return strconv.Quote(n.Value)

	case *spec.NumberLit:
		return pyNumber(n.Value)

	case *spec.BoolLit:
		if n.Value {
			return "True"
		}
		return "False"

	case *spec.NullLit:
		return "None"

	case *spec.Binary:
		return b.compileBinary(n, ctx, em)

	case *spec.Unary:
		operand := b.compile(n.Operand, ctx, em)
		switch n.Op {
		case "not":
			return fmt.Sprintf("(not %s)", operand)
		case "-":
			return fmt.Sprintf("(-%s)", operand)
		default:
			em.warnf("python: unsupported unary operator %q", n.Op)
			return b.unsupported("unary " + n.Op)
		}

	case *spec.Call:
		return b.compileCall(n, ctx, em)

	case *spec.Member:
		if n.Property == "length" {
			return fmt.Sprintf("len(%s)", b.compile(n.Target, ctx, em))
		}
		return fmt.Sprintf("vow_get(%s, %q)", b.compile(n.Target, ctx, em), n.Property)

	case *spec.Index:
		return fmt.Sprintf("%s[%s]", b.compile(n.Target, ctx, em), b.compile(n.Key, ctx, em))

	case *spec.Quantifier:
		return b.compileQuantifier(n, ctx, em)

	case *spec.Conditional:
		return fmt.Sprintf("(%s if %s else %s)",
			b.compile(n.Then, ctx, em),
			b.compile(n.Cond, ctx, em),
			b.compile(n.Else, ctx, em))

	case *spec.Old:
		return b.compile(n.Inner, ctx.WithOld(), em)

	case *spec.ResultRef:
		return "result"

	case *spec.InputRef:
		return "input"

	case *spec.Lambda:
		inner := ctx
		for _, p := range n.Params {
			inner = inner.WithVar(p, p)
		}
		return fmt.Sprintf("(lambda %s: %s)",
			strings.Join(n.Params, ", "), b.compile(n.Body, inner, em))

	case *spec.ListLit:
		elems := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = b.compile(el, ctx, em)
		}
		return "[" + strings.Join(elems, ", ") + "]"

	default:
		em.warnf("python: unknown expression variant %T", e)
		return b.unsupported(fmt.Sprintf("%T", e))
	}
}

func (b *PythonBackend) compileBinary(n *spec.Binary, ctx Context, em *emitter) string {
	left := b.compile(n.Left, ctx, em)
	right := b.compile(n.Right, ctx, em)

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "%":
		return fmt.Sprintf("(%s %s %s)", left, n.Op, right)
	case "and":
		return fmt.Sprintf("(%s and %s)", left, right)
	case "or":
		return fmt.Sprintf("(%s or %s)", left, right)
	case "implies":
		// Logical implication: not(left) or right.
		return fmt.Sprintf("((not %s) or %s)", left, right)
	default:
		em.warnf("python: unsupported binary operator %q", n.Op)
		return b.unsupported("binary " + n.Op)
	}
}

func (b *PythonBackend) compileCall(n *spec.Call, ctx Context, em *emitter) string {
	if entity, method, ok := entityQuery(n, ctx); ok {
		return b.compileEntityQuery(entity, method, n.Args, ctx, em)
	}

	if member, ok := n.Fn.(*spec.Member); ok && len(n.Args) == 1 {
		target := b.compile(member.Target, ctx, em)
		arg := b.compile(n.Args[0], ctx, em)
		switch member.Property {
		case "contains":
			return fmt.Sprintf("(%s in %s)", arg, target)
		case "startsWith":
			return fmt.Sprintf("%s.startswith(%s)", target, arg)
		case "endsWith":
			return fmt.Sprintf("%s.endswith(%s)", target, arg)
		}
	}

	em.warnf("python: no translation for call %s", spec.Format(n))
	return b.unsupported("call " + spec.Format(n.Fn))
}

func (b *PythonBackend) compileEntityQuery(entity, method string, args []spec.Expr, ctx Context, em *emitter) string {
	recv := fmt.Sprintf("%s.entity(%q)", b.receiver(ctx), entity)

	if method == "getAll" {
		return recv + ".get_all()"
	}

	pairs, ok := criteriaPairs(args)
	if !ok {
		em.warnf("python: entity query %s.%s has non-criteria arguments", entity, method)
		return b.unsupported("entity query " + entity + "." + method)
	}

	criteria := "None"
	if len(pairs) > 0 {
		parts := make([]string, len(pairs))
		for i, p := range pairs {
			parts[i] = fmt.Sprintf("%q: %s", p.field, b.compile(p.value, ctx, em))
		}
		criteria = "{" + strings.Join(parts, ", ") + "}"
	}

	switch method {
	case "exists":
		return fmt.Sprintf("%s.exists(%s)", recv, criteria)
	case "lookup":
		return fmt.Sprintf("%s.lookup(%s)", recv, criteria)
	default: // count
		return fmt.Sprintf("%s.count(%s)", recv, criteria)
	}
}

func (b *PythonBackend) receiver(ctx Context) string {
	if ctx.InOld() {
		return "env.old"
	}
	return "env.store"
}

func (b *PythonBackend) compileQuantifier(n *spec.Quantifier, ctx Context, em *emitter) string {
	coll := b.compile(n.Collection, ctx, em)
	inner := ctx.WithVar(n.Var, n.Var)
	pred := b.compile(n.Predicate, inner, em)

	switch n.Kind {
	case spec.QuantAll:
		return fmt.Sprintf("all(%s for %s in %s)", pred, n.Var, coll)
	case spec.QuantAny:
		return fmt.Sprintf("any(%s for %s in %s)", pred, n.Var, coll)
	case spec.QuantNone:
		return fmt.Sprintf("(not any(%s for %s in %s))", pred, n.Var, coll)
	case spec.QuantCount:
		return fmt.Sprintf("sum(1 for %s in %s if %s)", n.Var, coll, pred)
	default:
		em.warnf("python: unknown quantifier kind %q", n.Kind)
		return b.unsupported("quantifier " + string(n.Kind))
	}
}

// unsupported emits a truthy placeholder that stays valid when embedded
// inside a larger expression (a trailing comment would swallow the rest of
// the line, so the marker lives in a dead string operand instead).
func (b *PythonBackend) unsupported(kind string) string {
	return fmt.Sprintf("(True or %q)", UnsupportedMarker+": "+kind)
}

func pyNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
