package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// fingerprintDomain separates specification fingerprints from any other
// SHA-256 use. The version suffix enables future algorithm migration.
const fingerprintDomain = "vow/spec/v1"

// Fingerprint computes a stable identifier for a set of behaviors. Two
// structurally identical behavior sets produce the same fingerprint
// regardless of slice order; any change to a clause changes it.
func Fingerprint(behaviors []Behavior) string {
	lines := make([]string, 0, len(behaviors))
	for _, b := range behaviors {
		lines = append(lines, renderBehavior(b))
	}
	sort.Strings(lines)

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00}) // null separator between domain and payload
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{0x0a})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// renderBehavior flattens one behavior into a single deterministic line.
func renderBehavior(b Behavior) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "behavior %s -> %s", b.Name, b.Output)

	for _, f := range b.Input {
		fmt.Fprintf(&sb, "; in %s:%s:%t", f.Name, f.Type, f.Required)
	}
	for _, e := range b.Errors {
		fmt.Fprintf(&sb, "; err %s:%t:%s", e.Name, e.Retriable, e.Trigger)
		if e.When != nil {
			fmt.Fprintf(&sb, ":%s", Format(e.When))
		}
	}
	for _, p := range b.Preconditions {
		fmt.Fprintf(&sb, "; pre %s", Format(p))
	}
	for _, blk := range b.Postconditions {
		for _, p := range blk.Predicates {
			fmt.Fprintf(&sb, "; post[%s] %s", blk.Condition, Format(p))
		}
	}
	for _, p := range b.Invariants {
		fmt.Fprintf(&sb, "; inv %s", Format(p))
	}
	for _, p := range b.Temporal {
		fmt.Fprintf(&sb, "; temporal %s", Format(p))
	}
	return sb.String()
}
