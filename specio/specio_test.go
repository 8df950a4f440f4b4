package specio

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowlang/vow/spec"
)

func TestDecodeBehaviorBasic(t *testing.T) {
	behaviors, err := DecodeBehaviors(`
		behaviors: deposit: {
			description: "Credits an account"
			output: "DepositResult"

			input: {
				account: {type: "string", required: true}
				amount: {type: "number", required: true}
				memo: {type: "string", required: false}
			}

			requires: [{
				kind: "binary", op: ">",
				left: {kind: "member", target: {kind: "input"}, property: "amount"},
				right: {kind: "number", value: 0},
			}]

			ensures: [{
				on: "success"
				all: [{
					kind: "binary", op: "==",
					left: {kind: "member", target: {kind: "result"}, property: "status"},
					right: {kind: "string", value: "posted"},
				}]
			}]

			invariants: [{
				kind: "binary", op: ">=",
				left: {
					kind: "call"
					fn: {kind: "member", target: {kind: "ident", name: "Account"}, property: "count"}
				},
				right: {kind: "number", value: 1},
			}]

			errors: limit_exceeded: {
				trigger: "amount exceeds the per-transaction limit"
				retriable: false
				when: {
					kind: "binary", op: ">",
					left: {kind: "member", target: {kind: "input"}, property: "amount"},
					right: {kind: "number", value: 1000},
				}
			}
		}
	`)
	require.NoError(t, err)
	require.Len(t, behaviors, 1)

	b := behaviors[0]
	assert.Equal(t, "deposit", b.Name)
	assert.Equal(t, "Credits an account", b.Description)
	assert.Equal(t, "DepositResult", b.Output)

	require.Len(t, b.Input, 3)
	assert.Equal(t, spec.Field{Name: "account", Type: "string", Required: true}, b.Input[0])
	assert.Equal(t, spec.Field{Name: "memo", Type: "string", Required: false}, b.Input[2])

	require.Len(t, b.Preconditions, 1)
	assert.Equal(t, "(input.amount > 0)", spec.Format(b.Preconditions[0]))

	require.Len(t, b.Postconditions, 1)
	assert.Equal(t, spec.CondSuccess, b.Postconditions[0].Condition)
	require.Len(t, b.Postconditions[0].Predicates, 1)
	assert.Equal(t, `(result.status == "posted")`, spec.Format(b.Postconditions[0].Predicates[0]))

	require.Len(t, b.Invariants, 1)
	assert.Equal(t, "(Account.count() >= 1)", spec.Format(b.Invariants[0]))

	require.Len(t, b.Errors, 1)
	assert.Equal(t, "limit_exceeded", b.Errors[0].Name)
	assert.False(t, b.Errors[0].Retriable)
	require.NotNil(t, b.Errors[0].When)
	assert.Equal(t, "(input.amount > 1000)", spec.Format(b.Errors[0].When))
}

func TestDecodeEveryExpressionKind(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"ident":  {`{kind: "ident", name: "Account"}`, "Account"},
		"string": {`{kind: "string", value: "hi"}`, `"hi"`},
		"number": {`{kind: "number", value: 2.5}`, "2.5"},
		"bool":   {`{kind: "bool", value: true}`, "true"},
		"null":   {`{kind: "null"}`, "null"},
		"binary": {
			`{kind: "binary", op: "implies", left: {kind: "bool", value: true}, right: {kind: "bool", value: false}}`,
			"(true implies false)",
		},
		"unary": {
			`{kind: "unary", op: "not", operand: {kind: "bool", value: true}}`,
			"not true",
		},
		"call": {
			`{kind: "call", fn: {kind: "ident", name: "sqrt"}, args: [{kind: "number", value: 4}]}`,
			"sqrt(4)",
		},
		"member": {
			`{kind: "member", target: {kind: "result"}, property: "total"}`,
			"result.total",
		},
		"index": {
			`{kind: "index", target: {kind: "ident", name: "xs"}, key: {kind: "number", value: 0}}`,
			"xs[0]",
		},
		"quantifier": {
			`{kind: "quantifier", quant: "all", "var": "x", collection: {kind: "ident", name: "xs"}, predicate: {kind: "binary", op: ">", left: {kind: "ident", name: "x"}, right: {kind: "number", value: 0}}}`,
			"all(x in xs: (x > 0))",
		},
		"conditional": {
			`{kind: "conditional", cond: {kind: "bool", value: true}, then: {kind: "number", value: 1}, "else": {kind: "number", value: 2}}`,
			"if true then 1 else 2",
		},
		"old": {
			`{kind: "old", inner: {kind: "member", target: {kind: "ident", name: "acct"}, property: "balance"}}`,
			"old(acct.balance)",
		},
		"result": {`{kind: "result"}`, "result"},
		"input":  {`{kind: "input"}`, "input"},
		"lambda": {
			`{kind: "lambda", params: ["x"], body: {kind: "ident", name: "x"}}`,
			"(x) => x",
		},
		"list": {
			`{kind: "list", elems: [{kind: "number", value: 1}, {kind: "string", value: "a"}]}`,
			`[1, "a"]`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e, err := decodeExpr(compileValue(t, tc.src))
			require.NoError(t, err)
			assert.Equal(t, tc.want, spec.Format(e))
		})
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := decodeExpr(compileValue(t, `{kind: "regex", value: ".*"}`))
	require.Error(t, err)

	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Message, `unknown expression kind "regex"`)
}

func TestDecodeRejectsUnknownOperator(t *testing.T) {
	_, err := decodeExpr(compileValue(t,
		`{kind: "binary", op: "xor", left: {kind: "bool", value: true}, right: {kind: "bool", value: false}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown operator "xor"`)
}

func TestDecodeRejectsUnknownQuantifier(t *testing.T) {
	_, err := decodeExpr(compileValue(t,
		`{kind: "quantifier", quant: "most", "var": "x", collection: {kind: "ident", name: "xs"}, predicate: {kind: "bool", value: true}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown quantifier kind "most"`)
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"behavior without output": {
			`behaviors: broken: {input: {a: {type: "string"}}}`,
			"output type name is required",
		},
		"input field without type": {
			`behaviors: broken: {output: "R", input: {a: {required: true}}}`,
			"field type is required",
		},
		"ensures without on": {
			`behaviors: broken: {output: "R", ensures: [{all: [{kind: "bool", value: true}]}]}`,
			"on condition is required",
		},
		"ensures with empty all": {
			`behaviors: broken: {output: "R", ensures: [{on: "success"}]}`,
			"all list is required",
		},
		"error without trigger": {
			`behaviors: broken: {output: "R", errors: oops: {retriable: true}}`,
			"trigger description is required",
		},
		"binary without right": {
			`behaviors: broken: {output: "R", requires: [{kind: "binary", op: ">", left: {kind: "number", value: 1}}]}`,
			"right is required",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBehaviors(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDecodeRequiresBehaviorsStruct(t *testing.T) {
	_, err := DecodeBehaviors(`other: {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "behaviors struct is required")

	_, err = DecodeBehaviors(`behaviors: {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one behavior is required")
}

func TestDecodeErrorNamesFailingField(t *testing.T) {
	_, err := DecodeBehaviors(`behaviors: broken: {input: {a: {type: "string"}}}`)
	require.Error(t, err)

	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Error(), "broken.output")
	assert.Contains(t, derr.Error(), "output type name is required")
}

func compileValue(t *testing.T, src string) cue.Value {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString("expr: " + src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath("expr"))
}
