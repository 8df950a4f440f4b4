package compiler

import "github.com/vowlang/vow/spec"

// Context carries the read-only compilation environment: the known entity
// names, whether compilation is inside a historical (old) expression, and
// the variable bindings currently in scope.
//
// Context is a value type. With* methods return modified copies; the
// historical flag set on entering an old(...) subtree therefore never
// leaks back into the caller's context. The entity set is shared across
// copies and must not be mutated after construction.
type Context struct {
	entities map[string]bool
	inOld    bool
	vars     map[string]string // source name -> rendered name
}

// NewContext creates a fresh context for one top-level expression.
func NewContext(entityNames []string) Context {
	return Context{entities: spec.EntityNames(entityNames...)}
}

// WithOld returns a copy with the historical flag set. Setting it twice is
// a no-op, which is what makes old(old(e)) compile identically to old(e).
func (c Context) WithOld() Context {
	c.inOld = true
	return c
}

// WithVar returns a copy with one more variable in scope. The vars map is
// copied so sibling branches cannot observe each other's bindings.
func (c Context) WithVar(name, rendered string) Context {
	vars := make(map[string]string, len(c.vars)+1)
	for k, v := range c.vars {
		vars[k] = v
	}
	vars[name] = rendered
	c.vars = vars
	return c
}

// InOld reports whether compilation is inside a historical expression.
func (c Context) InOld() bool { return c.inOld }

// IsEntity reports whether name is a known entity.
func (c Context) IsEntity(name string) bool { return c.entities[name] }

// Var returns the rendered name for a bound variable.
func (c Context) Var(name string) (string, bool) {
	rendered, ok := c.vars[name]
	return rendered, ok
}
