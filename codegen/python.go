package codegen

import (
	"fmt"
	"strconv"

	"github.com/vowlang/vow/binder"
	"github.com/vowlang/vow/spec"
)

// PythonRenderer renders pytest artifacts. The generated suite depends
// only on pytest; the helper runtime ships as a plain module next to the
// tests.
type PythonRenderer struct{}

// NewPythonRenderer returns the Python artifact renderer.
func NewPythonRenderer() *PythonRenderer { return &PythonRenderer{} }

// Language implements Renderer.
func (r *PythonRenderer) Language() string { return "python" }

// Render implements Renderer.
func (r *PythonRenderer) Render(binding binder.Binding, behavior spec.Behavior) ([]Artifact, error) {
	if binding.Backend != r.Language() {
		return nil, fmt.Errorf("binding for %s was compiled for backend %q, want %q", binding.Behavior, binding.Backend, r.Language())
	}

	fixture, err := renderFixture(binding)
	if err != nil {
		return nil, err
	}

	return []Artifact{
		{
			Kind:    KindTest,
			Path:    "test_" + snakeName(binding.Behavior) + "_contract.py",
			Content: r.testFile(binding, behavior),
		},
		fixture,
		{Kind: KindHelper, Path: "vow_runtime.py", Content: pyHelperRuntime},
		{Kind: KindConfig, Path: "requirements.txt", Content: "pytest>=8.0\n"},
	}, nil
}

func (r *PythonRenderer) testFile(binding binder.Binding, behavior spec.Behavior) string {
	g := &gen{}
	name := snakeName(binding.Behavior)
	fixturePath := fmt.Sprintf("fixtures/%s.json", name)

	g.linef("# Code generated for behavior %q. DO NOT EDIT.", binding.Behavior)
	g.linef("# Signature: %s -> %s", binding.InputType, binding.OutputType)
	g.line("import pytest")
	g.blank()
	g.line("from vow_runtime import (")
	g.line("    VowEnv,")
	g.line("    implementation_for,")
	g.line("    load_fixture,")
	g.line("    vow_get,")
	g.line(")")
	g.blank()
	g.linef("FIXTURE = %s", pyString(fixturePath))

	g.blank()
	g.blank()
	g.line("def _env():")
	g.linef("    return VowEnv(%s)", pyEntitySeed(behavior))

	for i, pre := range binding.Preconditions {
		r.preconditionTest(g, name, i, pre)
	}
	for i, post := range binding.Postconditions {
		r.postconditionTest(g, binding, name, i, post)
	}
	for _, eb := range binding.Errors {
		r.errorTest(g, binding, name, eb)
	}
	for i, post := range binding.Postconditions {
		if post.FailsOnViolation {
			r.violationTest(g, name, i, post)
		}
	}
	r.constraintTests(g, binding, name)

	return g.out.String()
}

func (r *PythonRenderer) preconditionTest(g *gen, name string, i int, pre binder.PreconditionBinding) {
	g.blank()
	g.blank()
	g.linef("def test_%s_precondition_%d():", name, i+1)
	if !pre.Code.Supported() {
		g.linef("    pytest.skip(%s)", pyString("not fully translated: "+pre.Description))
		return
	}
	g.line("    env = _env()")
	g.line("    fix = load_fixture(FIXTURE)")
	g.line("    input = fix[\"valid_input\"]")
	g.linef("    assert %s, %s", pre.Code.Code, pyString("valid input rejected: "+pre.Description))
	g.blank()
	g.linef("    entry = fix[\"preconditions\"][%d]", i)
	g.line("    if entry.get(\"needs_manual\"):")
	g.line("        pytest.skip(\"violating input requires manual completion\")")
	g.line("    input = entry[\"violating_input\"]")
	g.linef("    assert not %s, %s", pre.Code.Code, pyString("violating input accepted: "+pre.Description))
}

func (r *PythonRenderer) postconditionTest(g *gen, binding binder.Binding, name string, i int, post binder.PostconditionBinding) {
	g.blank()
	g.blank()
	g.linef("def test_%s_postcondition_%d():", name, i+1)
	if !post.Code.Supported() {
		g.linef("    pytest.skip(%s)", pyString("not fully translated: "+post.Description))
		return
	}
	g.linef("    impl = implementation_for(%s)", pyString(binding.Behavior))
	g.line("    env = _env()")
	g.line("    fix = load_fixture(FIXTURE)")
	r.postconditionInput(g, binding, post.Condition)
	g.blank()
	g.line("    env.old = env.store.capture()")
	g.line("    result, verr = impl(env, input)")
	r.conditionGuard(g, post.Condition)
	g.linef("    assert %s, %s", post.Code.Code, pyString("postcondition violated: "+post.Description))
}

// postconditionInput picks the invocation input matching the clause's
// condition tag: error-tagged clauses must be driven by an input that
// actually provokes the error, not the valid input.
func (r *PythonRenderer) postconditionInput(g *gen, binding binder.Binding, cond spec.Condition) {
	errName := ""
	switch {
	case cond != spec.CondSuccess && cond != spec.CondAnyError:
		errName = string(cond)
	case cond == spec.CondAnyError && len(binding.Errors) > 0:
		errName = binding.Errors[0].Name
	}
	if errName == "" {
		g.line("    input = fix[\"valid_input\"]")
		return
	}
	g.linef("    entry = next(e for e in fix[\"errors\"] if e[\"name\"] == %s)", pyString(errName))
	g.line("    if entry.get(\"needs_manual\"):")
	g.line("        pytest.skip(\"triggering input requires manual completion\")")
	g.line("    input = entry[\"triggering_input\"]")
}

func (r *PythonRenderer) conditionGuard(g *gen, cond spec.Condition) {
	switch cond {
	case spec.CondSuccess:
		g.line("    if verr is not None:")
		g.line("        pytest.skip(\"outcome %s does not match condition success\" % verr.name)")
	case spec.CondAnyError:
		g.line("    if verr is None:")
		g.line("        pytest.skip(\"outcome success does not match condition any_error\")")
	default:
		g.linef("    if verr is None or verr.name != %s:", pyString(string(cond)))
		g.linef("        pytest.skip(%s)", pyString("outcome does not match condition "+string(cond)))
	}
}

func (r *PythonRenderer) errorTest(g *gen, binding binder.Binding, name string, eb binder.ErrorBinding) {
	g.blank()
	g.blank()
	g.linef("def test_%s_error_%s():", name, snakeName(eb.Name))
	g.linef("    impl = implementation_for(%s)", pyString(binding.Behavior))
	g.line("    env = _env()")
	g.line("    fix = load_fixture(FIXTURE)")
	g.linef("    entry = next(e for e in fix[\"errors\"] if e[\"name\"] == %s)", pyString(eb.Name))
	g.line("    if entry.get(\"needs_manual\"):")
	g.linef("        pytest.skip(%s)", pyString("triggering input requires manual completion: "+eb.Trigger))
	g.line("    input = entry[\"triggering_input\"]")
	g.blank()
	g.line("    env.old = env.store.capture()")
	g.line("    _, verr = impl(env, input)")
	g.linef("    assert verr is not None, %s", pyString("expected error "+eb.Name+", got success"))
	g.linef("    assert verr.name == %s", pyString(eb.Name))
	g.linef("    assert verr.retriable is %s", pyBool(eb.Retriable))
}

func (r *PythonRenderer) violationTest(g *gen, name string, i int, post binder.PostconditionBinding) {
	g.blank()
	g.blank()
	g.linef("def test_%s_violation_%d():", name, i+1)
	g.line("    env = _env()")
	g.line("    env.old = env.store.capture()")
	g.line("    fix = load_fixture(FIXTURE)")
	g.line("    input = fix[\"valid_input\"]")
	g.linef("    result = fix[\"postconditions\"][%d][\"violating_result\"]", i)
	g.linef("    assert not %s, %s", post.Code.Code,
		pyString(HarnessIntegrityMarker+": assertion held for its violating result: "+post.Description))
}

func (r *PythonRenderer) constraintTests(g *gen, binding binder.Binding, name string) {
	emit := func(kind string, i int, c binder.ConstraintBinding) {
		g.blank()
		g.blank()
		g.linef("def test_%s_%s_%d():", name, kind, i+1)
		if !c.Code.Supported() {
			g.linef("    pytest.skip(%s)", pyString("not fully translated: "+c.Description))
			return
		}
		g.linef("    impl = implementation_for(%s)", pyString(binding.Behavior))
		g.line("    env = _env()")
		g.line("    fix = load_fixture(FIXTURE)")
		g.line("    input = fix[\"valid_input\"]")
		g.blank()
		g.line("    env.old = env.store.capture()")
		g.line("    result, _ = impl(env, input)")
		g.linef("    assert %s, %s", c.Code.Code, pyString("constraint violated: "+c.Description))
	}
	for i, c := range binding.Invariants {
		emit("invariant", i, c)
	}
	for i, c := range binding.Temporal {
		emit("temporal", i, c)
	}
}

func pyEntitySeed(behavior spec.Behavior) string {
	names := behavior.QueriedEntities()
	if len(names) == 0 {
		return "{}"
	}
	seed := "{"
	for i, n := range names {
		if i > 0 {
			seed += ", "
		}
		seed += pyString(n) + ": []"
	}
	return seed + "}"
}

// pyString renders a double-quoted Python string literal. Go's escaping
// rules are a subset of Python's for the characters descriptions contain.
func pyString(s string) string {
	return strconv.Quote(s)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
