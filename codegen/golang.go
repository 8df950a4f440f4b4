package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vowlang/vow/binder"
	"github.com/vowlang/vow/compiler"
	"github.com/vowlang/vow/spec"
)

// GoRenderer renders Go test artifacts. The generated package is
// self-contained: the helper runtime ships with it and nothing outside the
// standard library is imported, so the artifacts drop into any build.
type GoRenderer struct{}

// NewGoRenderer returns the Go artifact renderer.
func NewGoRenderer() *GoRenderer { return &GoRenderer{} }

// Language implements Renderer.
func (r *GoRenderer) Language() string { return "go" }

// Render implements Renderer.
func (r *GoRenderer) Render(binding binder.Binding, behavior spec.Behavior) ([]Artifact, error) {
	if binding.Backend != r.Language() {
		return nil, fmt.Errorf("binding for %s was compiled for backend %q, want %q", binding.Behavior, binding.Backend, r.Language())
	}

	fixture, err := renderFixture(binding)
	if err != nil {
		return nil, err
	}

	artifacts := []Artifact{
		{
			Kind:    KindTest,
			Path:    snakeName(binding.Behavior) + "_contract_test.go",
			Content: r.testFile(binding, behavior),
		},
		fixture,
		{Kind: KindHelper, Path: "vow_runtime_test.go", Content: goHelperRuntime},
		{Kind: KindConfig, Path: "go.mod", Content: goModFile},
	}
	return artifacts, nil
}

// gen builds one Go source file line by line.
type gen struct {
	out strings.Builder
}

func (g *gen) line(s string)                 { g.out.WriteString(s + "\n") }
func (g *gen) linef(format string, a ...any) { fmt.Fprintf(&g.out, format+"\n", a...) }
func (g *gen) blank()                        { g.out.WriteByte('\n') }

func (r *GoRenderer) testFile(binding binder.Binding, behavior spec.Behavior) string {
	g := &gen{}
	name := exportName(binding.Behavior)
	fixturePath := fmt.Sprintf("fixtures/%s.json", snakeName(binding.Behavior))

	g.linef("// Code generated for behavior %q. DO NOT EDIT.", binding.Behavior)
	g.linef("// Signature: %s -> %s", binding.InputType, binding.OutputType)
	g.line("package contracttest")
	g.blank()
	g.line("import (")
	for _, imp := range r.imports(binding) {
		g.linef("\t%q", imp)
	}
	g.line(")")

	// Setup: fresh store seeded per test, snapshot taken immediately
	// before invocation.
	g.blank()
	g.linef("func new%sEnv() *vowEnv {", name)
	g.linef("\treturn newVowEnv(%s)", goEntitySeed(behavior))
	g.line("}")

	for i, pre := range binding.Preconditions {
		r.preconditionTest(g, name, fixturePath, i, pre)
	}
	for i, post := range binding.Postconditions {
		r.postconditionTest(g, binding, name, fixturePath, i, post)
	}
	for _, eb := range binding.Errors {
		r.errorTest(g, binding, name, fixturePath, eb)
	}
	for i, post := range binding.Postconditions {
		if post.FailsOnViolation {
			r.violationTest(g, name, fixturePath, i, post)
		}
	}
	r.constraintTests(g, binding, name, fixturePath)

	return g.out.String()
}

func (r *GoRenderer) imports(binding binder.Binding) []string {
	set := map[string]bool{"testing": true}
	collect := func(res compiler.Result) {
		for _, imp := range res.Imports {
			set[imp] = true
		}
	}
	for _, pre := range binding.Preconditions {
		collect(pre.Code)
	}
	for _, post := range binding.Postconditions {
		collect(post.Code)
	}
	for _, eb := range binding.Errors {
		collect(eb.Guard)
	}
	for _, c := range binding.Invariants {
		collect(c.Code)
	}
	for _, c := range binding.Temporal {
		collect(c.Code)
	}
	imports := make([]string, 0, len(set))
	for imp := range set {
		imports = append(imports, imp)
	}
	sort.Strings(imports)
	return imports
}

func (r *GoRenderer) preconditionTest(g *gen, name, fixturePath string, i int, pre binder.PreconditionBinding) {
	g.blank()
	g.linef("func Test%sPrecondition%d(t *testing.T) {", name, i+1)
	if !pre.Code.Supported() {
		g.linef("\tt.Skip(%q)", "not fully translated: "+pre.Description)
		g.line("}")
		return
	}
	g.linef("\tenv := new%sEnv()", name)
	g.line("\t_ = env")
	g.linef("\tfix := vowLoadFixture(t, %q)", fixturePath)
	g.blank()
	g.line("\tinput := fix.ValidInput()")
	g.linef("\tif !vowBool(%s) {", pre.Code.Code)
	g.linef("\t\tt.Fatalf(\"valid input rejected: %%s\\ninput: %%v\", %q, input)", pre.Description)
	g.line("\t}")
	g.blank()
	g.linef("\tinput, manual := fix.ViolatingInput(%d)", i)
	g.line("\tif manual {")
	g.linef("\t\tt.Skip(%q)", "violating input requires manual completion")
	g.line("\t}")
	g.linef("\tif vowBool(%s) {", pre.Code.Code)
	g.linef("\t\tt.Fatalf(\"violating input accepted: %%s\\ninput: %%v\", %q, input)", pre.Description)
	g.line("\t}")
	g.line("}")
}

func (r *GoRenderer) postconditionTest(g *gen, binding binder.Binding, name, fixturePath string, i int, post binder.PostconditionBinding) {
	g.blank()
	g.linef("func Test%sPostcondition%d(t *testing.T) {", name, i+1)
	if !post.Code.Supported() {
		g.linef("\tt.Skip(%q)", "not fully translated: "+post.Description)
		g.line("}")
		return
	}
	g.linef("\timpl := vowImpl(t, %q)", binding.Behavior)
	g.linef("\tenv := new%sEnv()", name)
	g.linef("\tfix := vowLoadFixture(t, %q)", fixturePath)
	r.postconditionInput(g, binding, post.Condition)
	g.blank()
	g.line("\tenv.Old = env.Store.Capture()")
	g.line("\tresult, verr := impl(env, input)")
	r.conditionGuard(g, post.Condition)
	g.line("\t_ = result")
	g.blank()
	g.linef("\tif !vowBool(%s) {", post.Code.Code)
	g.linef("\t\tt.Fatalf(\"postcondition violated: %%s\\ninput: %%v\\nresult: %%v\\nold: %%v\", %q, input, result, env.Old)", post.Description)
	g.line("\t}")
	g.line("}")
}

// postconditionInput picks the invocation input matching the clause's
// condition tag: error-tagged clauses must be driven by an input that
// actually provokes the error, not the valid input.
func (r *GoRenderer) postconditionInput(g *gen, binding binder.Binding, cond spec.Condition) {
	errName := ""
	switch {
	case cond != spec.CondSuccess && cond != spec.CondAnyError:
		errName = string(cond)
	case cond == spec.CondAnyError && len(binding.Errors) > 0:
		errName = binding.Errors[0].Name
	}
	if errName == "" {
		g.line("\tinput := fix.ValidInput()")
		return
	}
	g.linef("\tinput, manual := fix.TriggeringInput(%q)", errName)
	g.line("\tif manual {")
	g.linef("\t\tt.Skip(%q)", "triggering input requires manual completion")
	g.line("\t}")
}

// conditionGuard skips the test when the invocation outcome does not match
// the clause's condition tag.
func (r *GoRenderer) conditionGuard(g *gen, cond spec.Condition) {
	switch cond {
	case spec.CondSuccess:
		g.line("\tif verr != nil {")
		g.line("\t\tt.Skipf(\"outcome %q does not match condition success\", verr.Name)")
		g.line("\t}")
	case spec.CondAnyError:
		g.line("\tif verr == nil {")
		g.line("\t\tt.Skip(\"outcome success does not match condition any_error\")")
		g.line("\t}")
	default:
		g.linef("\tif verr == nil || verr.Name != %q {", string(cond))
		g.linef("\t\tt.Skip(%q)", "outcome does not match condition "+string(cond))
		g.line("\t}")
	}
}

func (r *GoRenderer) errorTest(g *gen, binding binder.Binding, name, fixturePath string, eb binder.ErrorBinding) {
	g.blank()
	g.linef("func Test%sError%s(t *testing.T) {", name, exportName(eb.Name))
	g.linef("\timpl := vowImpl(t, %q)", binding.Behavior)
	g.linef("\tenv := new%sEnv()", name)
	g.linef("\tfix := vowLoadFixture(t, %q)", fixturePath)
	g.linef("\tinput, manual := fix.TriggeringInput(%q)", eb.Name)
	g.line("\tif manual {")
	g.linef("\t\tt.Skip(%q)", "triggering input requires manual completion: "+eb.Trigger)
	g.line("\t}")
	g.blank()
	g.line("\tenv.Old = env.Store.Capture()")
	g.line("\t_, verr := impl(env, input)")
	g.line("\tif verr == nil {")
	g.linef("\t\tt.Fatalf(\"expected error %%q, got success\\ninput: %%v\", %q, input)", eb.Name)
	g.line("\t}")
	g.linef("\tif verr.Name != %q {", eb.Name)
	g.linef("\t\tt.Fatalf(\"expected error %%q, got %%q\", %q, verr.Name)", eb.Name)
	g.line("\t}")
	g.linef("\tif verr.Retriable != %t {", eb.Retriable)
	g.linef("\t\tt.Fatalf(\"error %%q: retriable = %%t, want %t\", verr.Name, verr.Retriable)", eb.Retriable)
	g.line("\t}")
	g.line("}")
}

// violationTest proves the harness catches a real contract break: the
// synthesized violating result must make the assertion fail. If it does
// not, the whole run is untrustworthy and the failure message carries the
// harness-integrity marker the executor short-circuits on.
func (r *GoRenderer) violationTest(g *gen, name, fixturePath string, i int, post binder.PostconditionBinding) {
	g.blank()
	g.linef("func Test%sViolation%d(t *testing.T) {", name, i+1)
	g.linef("\tenv := new%sEnv()", name)
	g.line("\tenv.Old = env.Store.Capture()")
	g.linef("\tfix := vowLoadFixture(t, %q)", fixturePath)
	g.line("\tinput := fix.ValidInput()")
	g.linef("\tresult, ok := fix.ViolatingResult(%d)", i)
	g.line("\tif !ok {")
	g.linef("\t\tt.Fatal(%q)", "fixture lost its violating result")
	g.line("\t}")
	g.line("\t_ = input")
	g.blank()
	g.linef("\tif vowBool(%s) {", post.Code.Code)
	g.linef("\t\tt.Fatalf(\"%s: assertion held for its violating result: %%s\", %q)", HarnessIntegrityMarker, post.Description)
	g.line("\t}")
	g.line("}")
}

func (r *GoRenderer) constraintTests(g *gen, binding binder.Binding, name, fixturePath string) {
	emit := func(kind string, i int, c binder.ConstraintBinding) {
		g.blank()
		g.linef("func Test%s%s%d(t *testing.T) {", name, kind, i+1)
		if !c.Code.Supported() {
			g.linef("\tt.Skip(%q)", "not fully translated: "+c.Description)
			g.line("}")
			return
		}
		g.linef("\timpl := vowImpl(t, %q)", binding.Behavior)
		g.linef("\tenv := new%sEnv()", name)
		g.linef("\tfix := vowLoadFixture(t, %q)", fixturePath)
		g.line("\tinput := fix.ValidInput()")
		g.blank()
		g.line("\tenv.Old = env.Store.Capture()")
		g.line("\tresult, _ := impl(env, input)")
		g.line("\t_ = result")
		g.linef("\tif !vowBool(%s) {", c.Code.Code)
		g.linef("\t\tt.Fatalf(\"constraint violated: %%s\\ninput: %%v\", %q, input)", c.Description)
		g.line("\t}")
		g.line("}")
	}
	for i, c := range binding.Invariants {
		emit("Invariant", i, c)
	}
	for i, c := range binding.Temporal {
		emit("Temporal", i, c)
	}
}

// goEntitySeed renders the initial entity data for the generated env: one
// empty record set per entity the behavior's clauses touch.
func goEntitySeed(behavior spec.Behavior) string {
	names := behavior.QueriedEntities()
	if len(names) == 0 {
		return "nil"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%q: nil", n)
	}
	return "map[string][]map[string]any{" + strings.Join(parts, ", ") + "}"
}

// HarnessIntegrityMarker prefixes violation-test failures. The executor
// treats any failure carrying it as fatal to the run rather than as an
// ordinary FAIL.
const HarnessIntegrityMarker = "HARNESS INTEGRITY"

const goModFile = `module contracttest

go 1.22
`
