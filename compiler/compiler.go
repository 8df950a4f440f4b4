package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vowlang/vow/spec"
)

// UnsupportedMarker tags placeholder fragments emitted for expression
// variants a backend cannot translate. The placeholder is always valid
// source in the target language and always evaluates truthy, so the
// surrounding test still runs; the marker is what tells the executor to
// score the clause PARTIAL instead of PASS.
const UnsupportedMarker = "VOW_UNSUPPORTED"

// Result is the output of compiling one top-level expression.
type Result struct {
	// Code is the backend source fragment. Never empty.
	Code string
	// Imports lists modules the fragment needs, sorted and deduplicated.
	Imports []string
	// Warnings describes every degradation that occurred, in traversal
	// order. Empty means the whole expression compiled cleanly.
	Warnings []string
}

// Supported reports whether the fragment compiled without degradation.
// Degradation is tracked through Warnings, not by scanning Code: a string
// literal that happens to contain the marker text does not count.
func (r Result) Supported() bool {
	return len(r.Warnings) == 0
}

// IsUnsupported reports whether a compiled fragment contains an
// unsupported placeholder. It is a texture check on emitted source, not a
// degradation signal; use Result.Supported for that.
func IsUnsupported(code string) bool {
	return strings.Contains(code, UnsupportedMarker)
}

// Backend compiles expressions for one output language. Implementations
// share the same traversal contract: every spec.Expr variant produces
// either valid source or an explicitly tagged unsupported placeholder —
// never a panic, never empty output.
type Backend interface {
	// Name identifies the output language ("go", "python").
	Name() string
	// Compile translates one top-level expression under the given context.
	Compile(e spec.Expr, ctx Context) Result
}

// emitter accumulates imports and warnings for a single Compile call.
// One emitter per call keeps compilation free of shared mutable state.
type emitter struct {
	imports  map[string]bool
	warnings []string
}

func newEmitter() *emitter {
	return &emitter{imports: make(map[string]bool)}
}

func (em *emitter) addImport(path string) {
	em.imports[path] = true
}

func (em *emitter) warnf(format string, args ...any) {
	em.warnings = append(em.warnings, fmt.Sprintf(format, args...))
}

func (em *emitter) result(code string) Result {
	imports := make([]string, 0, len(em.imports))
	for path := range em.imports {
		imports = append(imports, path)
	}
	sort.Strings(imports)
	return Result{Code: code, Imports: imports, Warnings: em.warnings}
}

// entityQuery recognizes a call routed through the entity runtime: the
// receiver is a known entity name and the method is exists, lookup, count
// or getAll.
func entityQuery(call *spec.Call, ctx Context) (entity, method string, ok bool) {
	member, isMember := call.Fn.(*spec.Member)
	if !isMember || !spec.EntityMethods[member.Property] {
		return "", "", false
	}
	ident, isIdent := member.Target.(*spec.Ident)
	if !isIdent || !ctx.IsEntity(ident.Name) {
		return "", "", false
	}
	// A shadowing quantifier or lambda variable wins over the entity name.
	if _, shadowed := ctx.Var(ident.Name); shadowed {
		return "", "", false
	}
	return ident.Name, member.Property, true
}

// criteriaPairs interprets entity-query arguments as field == value
// equality pairs. Arguments in any other shape cannot be turned into
// criteria and make the whole query unsupported.
func criteriaPairs(args []spec.Expr) ([]criterion, bool) {
	pairs := make([]criterion, 0, len(args))
	for _, arg := range args {
		bin, ok := arg.(*spec.Binary)
		if !ok || bin.Op != "==" {
			return nil, false
		}
		field, ok := bin.Left.(*spec.Ident)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, criterion{field: field.Name, value: bin.Right})
	}
	return pairs, true
}

type criterion struct {
	field string
	value spec.Expr
}
