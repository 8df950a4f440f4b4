package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vowlang/vow/spec"
)

// GoBackend compiles expressions to Go source fragments. Fragments lean on
// the vow* helper runtime the Go renderer emits alongside every generated
// test file: values are dynamically typed there, so comparisons and field
// access go through helpers instead of native operators.
type GoBackend struct{}

// NewGoBackend returns the Go expression backend.
func NewGoBackend() *GoBackend { return &GoBackend{} }

// Name implements Backend.
func (b *GoBackend) Name() string { return "go" }

// Compile implements Backend.
func (b *GoBackend) Compile(e spec.Expr, ctx Context) Result {
	em := newEmitter()
	code := b.compile(e, ctx, em)
	return em.result(code)
}

func (b *GoBackend) compile(e spec.Expr, ctx Context, em *emitter) string {
	switch n := e.(type) {
	case *spec.Ident:
		if rendered, ok := ctx.Var(n.Name); ok {
			return rendered
		}
		if ctx.IsEntity(n.Name) {
			// Bare entity reference: the full record set.
			return fmt.Sprintf("%s.Entity(%q).GetAll()", b.receiver(ctx), n.Name)
		}
		return n.Name

	case *spec.StringLit:
		return strconv.Quote(n.Value)

	case *spec.NumberLit:
		return goNumber(n.Value)

	case *spec.BoolLit:
		return strconv.FormatBool(n.Value)

	case *spec.NullLit:
		return "nil"

	case *spec.Binary:
		return b.compileBinary(n, ctx, em)

	case *spec.Unary:
		operand := b.compile(n.Operand, ctx, em)
		switch n.Op {
		case "not":
			return fmt.Sprintf("!vowBool(%s)", operand)
		case "-":
			return fmt.Sprintf("(-vowNum(%s))", operand)
		default:
			em.warnf("go: unsupported unary operator %q", n.Op)
			return b.unsupported("unary " + n.Op)
		}

	case *spec.Call:
		return b.compileCall(n, ctx, em)

	case *spec.Member:
		if n.Property == "length" {
			return fmt.Sprintf("vowLen(%s)", b.compile(n.Target, ctx, em))
		}
		return fmt.Sprintf("vowGet(%s, %q)", b.compile(n.Target, ctx, em), n.Property)

	case *spec.Index:
		return fmt.Sprintf("vowIndex(%s, %s)", b.compile(n.Target, ctx, em), b.compile(n.Key, ctx, em))

	case *spec.Quantifier:
		return b.compileQuantifier(n, ctx, em)

	case *spec.Conditional:
		return fmt.Sprintf("vowIf(vowBool(%s), %s, %s)",
			b.compile(n.Cond, ctx, em),
			b.compile(n.Then, ctx, em),
			b.compile(n.Else, ctx, em))

	case *spec.Old:
		// Idempotent: inside a historical subtree the flag is already set
		// and nesting another old changes nothing.
		return b.compile(n.Inner, ctx.WithOld(), em)

	case *spec.ResultRef:
		return "result"

	case *spec.InputRef:
		return "input"

	case *spec.Lambda:
		inner := ctx
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			inner = inner.WithVar(p, p)
			params[i] = p + " any"
		}
		return fmt.Sprintf("func(%s) any { return %s }",
			strings.Join(params, ", "), b.compile(n.Body, inner, em))

	case *spec.ListLit:
		elems := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = b.compile(el, ctx, em)
		}
		return "[]any{" + strings.Join(elems, ", ") + "}"

	default:
		em.warnf("go: unknown expression variant %T", e)
		return b.unsupported(fmt.Sprintf("%T", e))
	}
}

func (b *GoBackend) compileBinary(n *spec.Binary, ctx Context, em *emitter) string {
	left := b.compile(n.Left, ctx, em)
	right := b.compile(n.Right, ctx, em)

	switch n.Op {
	case "==":
		return fmt.Sprintf("vowEq(%s, %s)", left, right)
	case "!=":
		return fmt.Sprintf("!vowEq(%s, %s)", left, right)
	case "<":
		return fmt.Sprintf("(vowCmp(%s, %s) < 0)", left, right)
	case "<=":
		return fmt.Sprintf("(vowCmp(%s, %s) <= 0)", left, right)
	case ">":
		return fmt.Sprintf("(vowCmp(%s, %s) > 0)", left, right)
	case ">=":
		return fmt.Sprintf("(vowCmp(%s, %s) >= 0)", left, right)
	case "+":
		return fmt.Sprintf("(vowNum(%s) + vowNum(%s))", left, right)
	case "-":
		return fmt.Sprintf("(vowNum(%s) - vowNum(%s))", left, right)
	case "*":
		return fmt.Sprintf("(vowNum(%s) * vowNum(%s))", left, right)
	case "/":
		return fmt.Sprintf("(vowNum(%s) / vowNum(%s))", left, right)
	case "%":
		em.addImport("math")
		return fmt.Sprintf("math.Mod(vowNum(%s), vowNum(%s))", left, right)
	case "and":
		return fmt.Sprintf("(vowBool(%s) && vowBool(%s))", left, right)
	case "or":
		return fmt.Sprintf("(vowBool(%s) || vowBool(%s))", left, right)
	case "implies":
		// Logical implication: not(left) or right.
		return fmt.Sprintf("(!vowBool(%s) || vowBool(%s))", left, right)
	default:
		em.warnf("go: unsupported binary operator %q", n.Op)
		return b.unsupported("binary " + n.Op)
	}
}

func (b *GoBackend) compileCall(n *spec.Call, ctx Context, em *emitter) string {
	if entity, method, ok := entityQuery(n, ctx); ok {
		return b.compileEntityQuery(entity, method, n.Args, ctx, em)
	}

	// String predicate methods supported by the helper runtime.
	if member, ok := n.Fn.(*spec.Member); ok && len(n.Args) == 1 {
		target := b.compile(member.Target, ctx, em)
		arg := b.compile(n.Args[0], ctx, em)
		switch member.Property {
		case "contains":
			return fmt.Sprintf("vowContains(%s, %s)", target, arg)
		case "startsWith":
			return fmt.Sprintf("vowHasPrefix(%s, %s)", target, arg)
		case "endsWith":
			return fmt.Sprintf("vowHasSuffix(%s, %s)", target, arg)
		}
	}

	em.warnf("go: no translation for call %s", spec.Format(n))
	return b.unsupported("call " + spec.Format(n.Fn))
}

func (b *GoBackend) compileEntityQuery(entity, method string, args []spec.Expr, ctx Context, em *emitter) string {
	recv := fmt.Sprintf("%s.Entity(%q)", b.receiver(ctx), entity)

	if method == "getAll" {
		return recv + ".GetAll()"
	}

	pairs, ok := criteriaPairs(args)
	if !ok {
		em.warnf("go: entity query %s.%s has non-criteria arguments", entity, method)
		return b.unsupported("entity query " + entity + "." + method)
	}

	criteria := "nil"
	if len(pairs) > 0 {
		parts := make([]string, len(pairs))
		for i, p := range pairs {
			parts[i] = fmt.Sprintf("%q: %s", p.field, b.compile(p.value, ctx, em))
		}
		criteria = "map[string]any{" + strings.Join(parts, ", ") + "}"
	}

	switch method {
	case "exists":
		return fmt.Sprintf("%s.Exists(%s)", recv, criteria)
	case "lookup":
		return fmt.Sprintf("%s.Lookup(%s)", recv, criteria)
	default: // count
		return fmt.Sprintf("%s.Count(%s)", recv, criteria)
	}
}

// receiver selects the live store or the pre-execution snapshot. The
// choice is made once per entity query from the context's historical flag.
func (b *GoBackend) receiver(ctx Context) string {
	if ctx.InOld() {
		return "env.Old"
	}
	return "env.Store"
}

func (b *GoBackend) compileQuantifier(n *spec.Quantifier, ctx Context, em *emitter) string {
	coll := b.compile(n.Collection, ctx, em)
	inner := ctx.WithVar(n.Var, n.Var)
	pred := b.compile(n.Predicate, inner, em)
	closure := fmt.Sprintf("func(%s any) bool { return vowBool(%s) }", n.Var, pred)

	switch n.Kind {
	case spec.QuantAll:
		return fmt.Sprintf("vowAll(%s, %s)", coll, closure)
	case spec.QuantAny:
		return fmt.Sprintf("vowAny(%s, %s)", coll, closure)
	case spec.QuantNone:
		return fmt.Sprintf("!vowAny(%s, %s)", coll, closure)
	case spec.QuantCount:
		return fmt.Sprintf("vowCount(%s, %s)", coll, closure)
	default:
		em.warnf("go: unknown quantifier kind %q", n.Kind)
		return b.unsupported("quantifier " + string(n.Kind))
	}
}

func (b *GoBackend) unsupported(kind string) string {
	return fmt.Sprintf("true /* %s: %s */", UnsupportedMarker, kind)
}

// goNumber renders integral values as integers so generated code reads the
// way a person would have written it.
func goNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
