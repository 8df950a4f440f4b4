// Package codegen renders Bindings into complete test artifacts: test
// sources, input fixtures, the helper runtime the generated assertions
// call into, and build configuration. One Renderer per output language;
// all renderers consume the same Binding shape, so a new language backend
// is only a new rendering.
package codegen

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vowlang/vow/binder"
	"github.com/vowlang/vow/spec"
)

// Kind classifies a rendered artifact.
type Kind string

// Artifact kinds.
const (
	KindTest    Kind = "test"
	KindFixture Kind = "fixture"
	KindHelper  Kind = "helper"
	KindConfig  Kind = "config"
)

// Artifact is one named output file. Callers are responsible for writing
// artifacts to storage; rendering never touches the filesystem.
type Artifact struct {
	Kind    Kind
	Path    string
	Content string
}

// Renderer renders all artifacts for one behavior in one language.
type Renderer interface {
	// Language identifies the output language ("go", "python").
	Language() string
	// Render produces the artifact set for a binding. The binding's
	// Backend must match the renderer's language.
	Render(binding binder.Binding, behavior spec.Behavior) ([]Artifact, error)
}

var titler = cases.Title(language.Und, cases.NoLower)

// exportName turns a behavior name into an exported Go identifier:
// "apply_discount" becomes "ApplyDiscount".
func exportName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, p := range parts {
		parts[i] = titler.String(p)
	}
	return strings.Join(parts, "")
}

// snakeName turns a behavior name into a Python identifier.
func snakeName(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
