package spec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Copy returns a deep, structurally independent copy of a runtime value.
// Supported shapes are the JSON-like ones entity records and behavior
// inputs/results are made of: nil, bool, string, numbers, []any and
// map[string]any. Unknown types are passed through by value, which is safe
// for any immutable scalar.
func Copy(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Copy(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Copy(elem)
		}
		return out
	default:
		return val
	}
}

// Equal compares two runtime values. Numeric values compare by magnitude
// across int, int64 and float64 so that a literal 3 matches a stored 3.0;
// everything else compares structurally.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if an, aok := asFloat(a); aok {
		if bn, bok := asFloat(b); bok {
			return an == bn
		}
		return false
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, exists := bv[k]
			if !exists || !Equal(elem, other) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// asFloat widens any supported numeric type to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// RenderValue produces a compact, deterministic rendering of a runtime
// value for failure messages. Map keys are emitted in sorted order so the
// same value always renders the same way.
func RenderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, RenderValue(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = RenderValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%q", val)
		}
		return string(out)
	default:
		return fmt.Sprintf("%v", val)
	}
}
