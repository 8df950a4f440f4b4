package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprSealed(t *testing.T) {
	// Compile-time check that every variant implements Expr.
	var _ Expr = &Ident{Name: "x"}
	var _ Expr = &StringLit{Value: "s"}
	var _ Expr = &NumberLit{Value: 1}
	var _ Expr = &BoolLit{Value: true}
	var _ Expr = &NullLit{}
	var _ Expr = &Binary{Op: "==", Left: &Ident{Name: "a"}, Right: &Ident{Name: "b"}}
	var _ Expr = &Unary{Op: "not", Operand: &BoolLit{Value: true}}
	var _ Expr = &Call{Fn: &Ident{Name: "f"}}
	var _ Expr = &Member{Target: &InputRef{}, Property: "x"}
	var _ Expr = &Index{Target: &Ident{Name: "xs"}, Key: &NumberLit{Value: 0}}
	var _ Expr = &Quantifier{Kind: QuantAll, Var: "v", Collection: &Ident{Name: "xs"}, Predicate: &BoolLit{Value: true}}
	var _ Expr = &Conditional{Cond: &BoolLit{Value: true}, Then: &NumberLit{Value: 1}, Else: &NumberLit{Value: 2}}
	var _ Expr = &Old{Inner: &Ident{Name: "x"}}
	var _ Expr = &ResultRef{}
	var _ Expr = &InputRef{}
	var _ Expr = &Lambda{Params: []string{"x"}, Body: &BoolLit{Value: true}}
	var _ Expr = &ListLit{Elems: []Expr{&NumberLit{Value: 1}}}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "binary comparison",
			expr: &Binary{Op: ">", Left: &Member{Target: &InputRef{}, Property: "amount"}, Right: &NumberLit{Value: 0}},
			want: "(input.amount > 0)",
		},
		{
			name: "implies",
			expr: &Binary{Op: "implies", Left: &Ident{Name: "a"}, Right: &Ident{Name: "b"}},
			want: "(a implies b)",
		},
		{
			name: "old entity count",
			expr: &Old{Inner: &Call{Fn: &Member{Target: &Ident{Name: "User"}, Property: "count"}}},
			want: "old(User.count())",
		},
		{
			name: "quantifier all",
			expr: &Quantifier{
				Kind:       QuantAll,
				Var:        "u",
				Collection: &Call{Fn: &Member{Target: &Ident{Name: "User"}, Property: "getAll"}},
				Predicate:  &Binary{Op: ">=", Left: &Member{Target: &Ident{Name: "u"}, Property: "balance"}, Right: &NumberLit{Value: 0}},
			},
			want: "all(u in User.getAll(): (u.balance >= 0))",
		},
		{
			name: "count quantifier",
			expr: &Quantifier{
				Kind:       QuantCount,
				Var:        "x",
				Collection: &Ident{Name: "items"},
				Predicate:  &BoolLit{Value: true},
			},
			want: "count(x in items where true)",
		},
		{
			name: "conditional",
			expr: &Conditional{Cond: &BoolLit{Value: true}, Then: &StringLit{Value: "a"}, Else: &NullLit{}},
			want: `if true then "a" else null`,
		},
		{
			name: "lambda and list",
			expr: &Call{Fn: &Ident{Name: "map"}, Args: []Expr{
				&ListLit{Elems: []Expr{&NumberLit{Value: 1}, &NumberLit{Value: 2.5}}},
				&Lambda{Params: []string{"x"}, Body: &Binary{Op: "*", Left: &Ident{Name: "x"}, Right: &NumberLit{Value: 2}}},
			}},
			want: "map([1, 2.5], (x) => (x * 2))",
		},
		{
			name: "index access",
			expr: &Index{Target: &Member{Target: &ResultRef{}, Property: "items"}, Key: &NumberLit{Value: 0}},
			want: "result.items[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.expr))
		})
	}
}

func TestPostBlockMatches(t *testing.T) {
	success := PostBlock{Condition: CondSuccess}
	anyErr := PostBlock{Condition: CondAnyError}
	named := PostBlock{Condition: Condition("InsufficientFunds")}

	assert.True(t, success.Matches("success"))
	assert.False(t, success.Matches("InsufficientFunds"))

	assert.True(t, anyErr.Matches("InsufficientFunds"))
	assert.True(t, anyErr.Matches("Timeout"))
	assert.False(t, anyErr.Matches("success"))

	assert.True(t, named.Matches("InsufficientFunds"))
	assert.False(t, named.Matches("Timeout"))
	assert.False(t, named.Matches("success"))
}
