package binder

import (
	"fmt"
	"strings"

	"github.com/vowlang/vow/compiler"
	"github.com/vowlang/vow/spec"
)

// Build compiles every clause of a behavior for one backend and returns a
// fresh Binding. Building is pure: no shared state, safe to run in
// parallel across behaviors.
func Build(b spec.Behavior, entityNames []string, backend compiler.Backend) Binding {
	ctx := compiler.NewContext(entityNames)
	known := spec.EntityNames(entityNames...)

	binding := Binding{
		Behavior:   b.Name,
		EntryPoint: b.Name,
		InputType:  inputDescriptor(b.Input),
		OutputType: b.Output,
		Backend:    backend.Name(),
		ValidInput: validInput(b),
	}

	for _, pre := range b.Preconditions {
		binding.Preconditions = append(binding.Preconditions, PreconditionBinding{
			Expr:        pre,
			Code:        backend.Compile(pre, ctx),
			Description: describe("requires", pre, known),
			Violating:   violatingInput(b, pre),
		})
	}

	for _, block := range b.Postconditions {
		for _, pred := range block.Predicates {
			code := backend.Compile(pred, ctx)
			pb := PostconditionBinding{
				Expr:        pred,
				Code:        code,
				Condition:   block.Condition,
				Description: describe("ensures", pred, known),
			}
			if violating, ok := violatingResult(pred); ok && code.Supported() {
				pb.FailsOnViolation = true
				pb.ViolatingResult = violating
			}
			binding.Postconditions = append(binding.Postconditions, pb)
		}
	}

	for _, errSpec := range b.Errors {
		eb := ErrorBinding{
			Name:        errSpec.Name,
			Trigger:     errSpec.Trigger,
			Retriable:   errSpec.Retriable,
			Description: fmt.Sprintf("error %s: %s", errSpec.Name, errSpec.Trigger),
			Triggering:  triggeringInput(b, errSpec.When),
		}
		if errSpec.When != nil {
			eb.Guard = backend.Compile(errSpec.When, ctx)
		}
		binding.Errors = append(binding.Errors, eb)
	}

	for _, inv := range b.Invariants {
		binding.Invariants = append(binding.Invariants, ConstraintBinding{
			Expr:        inv,
			Code:        backend.Compile(inv, ctx),
			Description: describe("invariant", inv, known),
		})
	}
	for _, tmp := range b.Temporal {
		binding.Temporal = append(binding.Temporal, ConstraintBinding{
			Expr:        tmp,
			Code:        backend.Compile(tmp, ctx),
			Description: describe("temporal", tmp, known),
		})
	}

	return binding
}

// describe renders a clause description, appending any entity names the
// expression queries that the caller did not declare. The clause still
// compiles — routing is resolved at runtime — but a failure message must
// name the unresolved entity to be diagnosable.
func describe(kind string, e spec.Expr, known map[string]bool) string {
	desc := kind + " " + spec.Format(e)
	if missing := unresolvedEntities(e, known); len(missing) > 0 {
		desc += " [unresolved entities: " + strings.Join(missing, ", ") + "]"
	}
	return desc
}

// unresolvedEntities collects receivers of entity-shaped calls that are
// not declared entity names, in first-use order.
func unresolvedEntities(e spec.Expr, known map[string]bool) []string {
	var missing []string
	seen := make(map[string]bool)
	spec.Walk(e, func(node spec.Expr) {
		call, ok := node.(*spec.Call)
		if !ok {
			return
		}
		member, ok := call.Fn.(*spec.Member)
		if !ok || !spec.EntityMethods[member.Property] {
			return
		}
		ident, ok := member.Target.(*spec.Ident)
		if !ok || known[ident.Name] || seen[ident.Name] {
			return
		}
		seen[ident.Name] = true
		missing = append(missing, ident.Name)
	})
	return missing
}

// inputDescriptor renders the invocation input signature for diagnostics
// and generated-test headers.
func inputDescriptor(fields []spec.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		part := f.Name + ": " + f.Type
		if !f.Required {
			part += "?"
		}
		parts[i] = part
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
