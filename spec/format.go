package spec

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders an expression as specification-style source text. The
// output is for descriptions, diagnostics and fingerprinting; it is not
// meant to be re-parsed.
func Format(e Expr) string {
	switch n := e.(type) {
	case *Ident:
		return n.Name
	case *StringLit:
		return strconv.Quote(n.Value)
	case *NumberLit:
		return formatNumber(n.Value)
	case *BoolLit:
		return strconv.FormatBool(n.Value)
	case *NullLit:
		return "null"
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", Format(n.Left), n.Op, Format(n.Right))
	case *Unary:
		if n.Op == "not" {
			return fmt.Sprintf("not %s", Format(n.Operand))
		}
		return fmt.Sprintf("%s%s", n.Op, Format(n.Operand))
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = Format(a)
		}
		return fmt.Sprintf("%s(%s)", Format(n.Fn), strings.Join(args, ", "))
	case *Member:
		return fmt.Sprintf("%s.%s", Format(n.Target), n.Property)
	case *Index:
		return fmt.Sprintf("%s[%s]", Format(n.Target), Format(n.Key))
	case *Quantifier:
		if n.Kind == QuantCount {
			return fmt.Sprintf("count(%s in %s where %s)", n.Var, Format(n.Collection), Format(n.Predicate))
		}
		return fmt.Sprintf("%s(%s in %s: %s)", n.Kind, n.Var, Format(n.Collection), Format(n.Predicate))
	case *Conditional:
		return fmt.Sprintf("if %s then %s else %s", Format(n.Cond), Format(n.Then), Format(n.Else))
	case *Old:
		return fmt.Sprintf("old(%s)", Format(n.Inner))
	case *ResultRef:
		return "result"
	case *InputRef:
		return "input"
	case *Lambda:
		return fmt.Sprintf("(%s) => %s", strings.Join(n.Params, ", "), Format(n.Body))
	case *ListLit:
		elems := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = Format(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		// Unreachable for the sealed set; keep a rendering anyway so a
		// diagnostic never comes out empty.
		return fmt.Sprintf("<%T>", e)
	}
}

// formatNumber renders integral floats without a fractional part.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
