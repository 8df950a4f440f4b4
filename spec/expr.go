package spec

// Expr is a sealed interface over the closed expression variant set.
// Only the node types in this file implement it. Compilers and evaluators
// must handle every variant: unknown nodes are a programming error, not a
// runtime condition.
type Expr interface {
	exprNode() // Sealed - only these types implement it
}

// Ident is a bare identifier: an entity name, a bound quantifier or lambda
// variable, or a free name resolved by the execution environment.
type Ident struct {
	Name string
}

// StringLit is a string literal.
type StringLit struct {
	Value string
}

// NumberLit is a numeric literal. Specification numbers are modeled as
// float64; integral values render without a fractional part.
type NumberLit struct {
	Value float64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// NullLit is the null literal.
type NullLit struct{}

// Binary operator expression. Op is one of the operators in BinaryOps.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// Unary operator expression. Op is "not" or "-".
type Unary struct {
	Op      string
	Operand Expr
}

// Call is a function or method invocation. A call whose Fn is a Member on a
// known entity name with property exists, lookup or count is an entity
// query and is routed through the entity runtime.
type Call struct {
	Fn   Expr
	Args []Expr
}

// Member is property access: Target.Property.
type Member struct {
	Target   Expr
	Property string
}

// Index is subscript access: Target[Key].
type Index struct {
	Target Expr
	Key    Expr
}

// QuantKind selects the quantifier semantics.
type QuantKind string

// Quantifier kinds.
const (
	QuantAll   QuantKind = "all"
	QuantAny   QuantKind = "any"
	QuantNone  QuantKind = "none"
	QuantCount QuantKind = "count"
)

// Quantifier binds Var over Collection and evaluates Predicate per element.
//   - all: every element satisfies the predicate
//   - any: at least one element satisfies the predicate
//   - none: no element satisfies the predicate
//   - count: the number of elements satisfying the predicate
type Quantifier struct {
	Kind       QuantKind
	Var        string
	Collection Expr
	Predicate  Expr
}

// Conditional is if/then/else as an expression.
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Old is a historical reference: the inner expression is evaluated against
// the pre-execution state capture instead of the live store. Nesting is
// idempotent: old(old(e)) means old(e).
type Old struct {
	Inner Expr
}

// ResultRef refers to the behavior's returned result. A bare ResultRef
// resolves to the whole value; wrap in Member for property access.
type ResultRef struct{}

// InputRef refers to the behavior's input. A bare InputRef resolves to the
// whole value; wrap in Member for property access.
type InputRef struct{}

// Lambda is an anonymous predicate: params bound over Body.
type Lambda struct {
	Params []string
	Body   Expr
}

// ListLit is a list literal.
type ListLit struct {
	Elems []Expr
}

func (*Ident) exprNode()       {}
func (*StringLit) exprNode()   {}
func (*NumberLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*NullLit) exprNode()     {}
func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Call) exprNode()        {}
func (*Member) exprNode()      {}
func (*Index) exprNode()       {}
func (*Quantifier) exprNode()  {}
func (*Conditional) exprNode() {}
func (*Old) exprNode()         {}
func (*ResultRef) exprNode()   {}
func (*InputRef) exprNode()    {}
func (*Lambda) exprNode()      {}
func (*ListLit) exprNode()     {}

// BinaryOps lists the accepted binary operators. "implies" is logical
// implication, rendered by every backend as not(left) or right.
var BinaryOps = map[string]bool{
	"==": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"and": true, "or": true, "implies": true,
}

// EntityMethods lists the call properties that route through the entity
// runtime when the receiver is a known entity name.
var EntityMethods = map[string]bool{
	"exists": true,
	"lookup": true,
	"count":  true,
	"getAll": true,
}
