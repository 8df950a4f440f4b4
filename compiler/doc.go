// Package compiler translates specification expressions into executable
// assertion fragments for an output-language backend.
//
// Compilation is a pure function of (expression, context): no shared
// mutable state, safe to run fully in parallel across behaviors. It never
// fails at the top level — expression variants a backend cannot translate
// degrade to a clearly tagged placeholder plus a warning, and downstream
// consumers score the owning clause PARTIAL, never PASS.
//
// Routing of entity queries is the mechanism that gives old(...) meaning:
// the same call shape, resolved against the pre-execution snapshot instead
// of the live store, selected once when compilation enters the historical
// subtree.
package compiler
