package codegen

// goHelperRuntime is the support file every generated Go suite ships with:
// the dynamic-value helpers compiled assertions call, the in-memory entity
// store with snapshot capture, the fixture loader and the implementation
// registry. It is self-contained so generated artifacts build against the
// standard library alone.
const goHelperRuntime = `// Code generated helper runtime. DO NOT EDIT.
package contracttest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
)

// vowError is the outcome an implementation returns for a declared error
// case. A nil vowError means success.
type vowError struct {
	Name      string
	Retriable bool
	Message   string
}

// vowImplFunc invokes the implementation under test.
type vowImplFunc func(env *vowEnv, input map[string]any) (any, *vowError)

// vowImpls registers implementations by behavior name. Wire the functions
// under test here before running the suite; unregistered behaviors skip.
var vowImpls = map[string]vowImplFunc{}

func vowImpl(t *testing.T, behavior string) vowImplFunc {
	t.Helper()
	impl, ok := vowImpls[behavior]
	if !ok {
		t.Skipf("no implementation registered for %q", behavior)
	}
	return impl
}

// vowEnv carries the live entity store and, once an invocation begins, the
// pre-invocation snapshot old(...) expressions read from.
type vowEnv struct {
	Store *vowStore
	Old   *vowStore
}

func newVowEnv(initial map[string][]map[string]any) *vowEnv {
	return &vowEnv{Store: newVowStore(initial)}
}

type vowStore struct {
	entities map[string][]map[string]any
}

func newVowStore(initial map[string][]map[string]any) *vowStore {
	s := &vowStore{entities: map[string][]map[string]any{}}
	for name, records := range initial {
		s.entities[name] = nil
		for _, rec := range records {
			s.Insert(name, rec)
		}
	}
	return s
}

func (s *vowStore) Insert(name string, rec map[string]any) {
	s.entities[name] = append(s.entities[name], vowCopyRecord(rec))
}

// Entity snapshots the named entity's records; a proxy never observes
// store writes made after its construction.
func (s *vowStore) Entity(name string) *vowEntity {
	live := s.entities[name]
	records := make([]map[string]any, len(live))
	for i, rec := range live {
		records[i] = vowCopyRecord(rec)
	}
	return &vowEntity{records: records}
}

// Capture deep-copies every entity's records; later mutation of the live
// store is not observable through the returned snapshot.
func (s *vowStore) Capture() *vowStore {
	return newVowStore(s.entities)
}

type vowEntity struct {
	records []map[string]any
}

func (e *vowEntity) Exists(criteria map[string]any) bool {
	return e.Lookup(criteria) != nil
}

func (e *vowEntity) Lookup(criteria map[string]any) map[string]any {
	for _, rec := range e.records {
		if vowMatches(rec, criteria) {
			return vowCopyRecord(rec)
		}
	}
	return nil
}

func (e *vowEntity) Count(criteria map[string]any) int {
	if criteria == nil {
		return len(e.records)
	}
	n := 0
	for _, rec := range e.records {
		if vowMatches(rec, criteria) {
			n++
		}
	}
	return n
}

func (e *vowEntity) GetAll() []any {
	out := make([]any, len(e.records))
	for i, rec := range e.records {
		out[i] = vowCopyRecord(rec)
	}
	return out
}

func vowMatches(rec, criteria map[string]any) bool {
	for k, v := range criteria {
		if !vowEq(rec[k], v) {
			return false
		}
	}
	return true
}

func vowCopyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = vowCopyValue(v)
	}
	return out
}

func vowCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return vowCopyRecord(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = vowCopyValue(el)
		}
		return out
	default:
		return v
	}
}

type vowFixture struct {
	doc map[string]any
}

func vowLoadFixture(t *testing.T, path string) *vowFixture {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("loading fixture %s: %v", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing fixture %s: %v", path, err)
	}
	return &vowFixture{doc: doc}
}

func (f *vowFixture) ValidInput() map[string]any {
	input, _ := f.doc["valid_input"].(map[string]any)
	return input
}

func (f *vowFixture) ViolatingInput(i int) (map[string]any, bool) {
	list, _ := f.doc["preconditions"].([]any)
	if i >= len(list) {
		return nil, true
	}
	entry, _ := list[i].(map[string]any)
	input, _ := entry["violating_input"].(map[string]any)
	manual, _ := entry["needs_manual"].(bool)
	return input, manual
}

func (f *vowFixture) TriggeringInput(name string) (map[string]any, bool) {
	list, _ := f.doc["errors"].([]any)
	for _, raw := range list {
		entry, _ := raw.(map[string]any)
		if entry["name"] == name {
			input, _ := entry["triggering_input"].(map[string]any)
			manual, _ := entry["needs_manual"].(bool)
			return input, manual
		}
	}
	return nil, true
}

// ViolatingResult returns the synthesized result falsifying postcondition
// i, or false when synthesis could not invert the predicate.
func (f *vowFixture) ViolatingResult(i int) (map[string]any, bool) {
	list, _ := f.doc["postconditions"].([]any)
	if i >= len(list) {
		return nil, false
	}
	entry, _ := list[i].(map[string]any)
	result, ok := entry["violating_result"].(map[string]any)
	return result, ok
}

func vowEq(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := vowToFloat(a); aok {
		if bf, bok := vowToFloat(b); bok {
			return af == bf
		}
		return false
	}
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap || bIsMap {
		if !aIsMap || !bIsMap || len(am) != len(bm) {
			return false
		}
		for k, v := range am {
			if !vowEq(v, bm[k]) {
				return false
			}
		}
		return true
	}
	as, aIsList := a.([]any)
	bs, bIsList := b.([]any)
	if aIsList || bIsList {
		if !aIsList || !bIsList || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !vowEq(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func vowCmp(a, b any) int {
	if af, aok := vowToFloat(a); aok {
		if bf, bok := vowToFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	panic(fmt.Sprintf("vow: cannot order %v against %v", a, b))
}

func vowNum(v any) float64 {
	if f, ok := vowToFloat(v); ok {
		return f
	}
	panic(fmt.Sprintf("vow: not a number: %v", v))
}

func vowToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func vowBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		if f, ok := vowToFloat(v); ok {
			return f != 0
		}
		return true
	}
}

func vowGet(v any, field string) any {
	if m, ok := v.(map[string]any); ok {
		return m[field]
	}
	return nil
}

func vowIndex(v, key any) any {
	switch t := v.(type) {
	case []any:
		i := int(vowNum(key))
		if i < 0 || i >= len(t) {
			panic(fmt.Sprintf("vow: index %d out of range", i))
		}
		return t[i]
	case map[string]any:
		k, _ := key.(string)
		return t[k]
	default:
		panic(fmt.Sprintf("vow: cannot index %T", v))
	}
}

func vowLen(v any) int {
	switch t := v.(type) {
	case string:
		return len(t)
	case []any:
		return len(t)
	case map[string]any:
		return len(t)
	default:
		return 0
	}
}

func vowContains(s, sub any) bool {
	ss, ok1 := s.(string)
	subs, ok2 := sub.(string)
	return ok1 && ok2 && strings.Contains(ss, subs)
}

func vowHasPrefix(s, prefix any) bool {
	ss, ok1 := s.(string)
	ps, ok2 := prefix.(string)
	return ok1 && ok2 && strings.HasPrefix(ss, ps)
}

func vowHasSuffix(s, suffix any) bool {
	ss, ok1 := s.(string)
	xs, ok2 := suffix.(string)
	return ok1 && ok2 && strings.HasSuffix(ss, xs)
}

func vowList(coll any) []any {
	if l, ok := coll.([]any); ok {
		return l
	}
	return nil
}

func vowAll(coll any, pred func(any) bool) bool {
	for _, v := range vowList(coll) {
		if !pred(v) {
			return false
		}
	}
	return true
}

func vowAny(coll any, pred func(any) bool) bool {
	for _, v := range vowList(coll) {
		if pred(v) {
			return true
		}
	}
	return false
}

func vowCount(coll any, pred func(any) bool) int {
	n := 0
	for _, v := range vowList(coll) {
		if pred(v) {
			n++
		}
	}
	return n
}

func vowIf(cond bool, a, b any) any {
	if cond {
		return a
	}
	return b
}
`
