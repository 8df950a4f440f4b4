// Package runtime provides the in-memory entity store contract assertions
// execute against.
//
// A Context holds the live records for a set of named entities. Tests
// capture a StateCapture before invoking the implementation under test,
// then evaluate historical (old) expressions against the capture while the
// live store may have been mutated. Captures are deep copies: nothing done
// to the live store after CaptureState is observable through the snapshot.
//
// Contexts are cheap; each test case owns its own and they are never shared
// across concurrently executing cases.
package runtime
