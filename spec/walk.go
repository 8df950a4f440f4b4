package spec

import "sort"

// Walk visits every node of an expression tree in pre-order.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Unary:
		Walk(n.Operand, fn)
	case *Call:
		Walk(n.Fn, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Member:
		Walk(n.Target, fn)
	case *Index:
		Walk(n.Target, fn)
		Walk(n.Key, fn)
	case *Quantifier:
		Walk(n.Collection, fn)
		Walk(n.Predicate, fn)
	case *Conditional:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Old:
		Walk(n.Inner, fn)
	case *Lambda:
		Walk(n.Body, fn)
	case *ListLit:
		for _, el := range n.Elems {
			Walk(el, fn)
		}
	}
}

// QueriedEntities collects the receivers of entity-shaped calls across a
// behavior's clauses, sorted and deduplicated.
func (b Behavior) QueriedEntities() []string {
	seen := make(map[string]bool)
	visit := func(e Expr) {
		Walk(e, func(node Expr) {
			call, ok := node.(*Call)
			if !ok {
				return
			}
			member, ok := call.Fn.(*Member)
			if !ok || !EntityMethods[member.Property] {
				return
			}
			if ident, ok := member.Target.(*Ident); ok {
				seen[ident.Name] = true
			}
		})
	}
	for _, e := range b.Preconditions {
		visit(e)
	}
	for _, block := range b.Postconditions {
		for _, e := range block.Predicates {
			visit(e)
		}
	}
	for _, es := range b.Errors {
		if es.When != nil {
			visit(es.When)
		}
	}
	for _, e := range b.Invariants {
		visit(e)
	}
	for _, e := range b.Temporal {
		visit(e)
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
