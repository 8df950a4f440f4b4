// Package spec provides the behavioral specification data model for vow.
//
// This package contains type definitions and pure value helpers only. All
// other packages import spec; spec imports nothing internal. This keeps the
// data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Expr is a sealed interface: the variant set is closed and every
//     consumer must handle all variants (or degrade explicitly).
//   - Behaviors and expressions are consumed read-only. Nothing in this
//     module mutates a Behavior after construction.
//   - Entity records are plain map[string]any values; Copy and Equal define
//     the deep-copy and equality semantics used everywhere else.
package spec
