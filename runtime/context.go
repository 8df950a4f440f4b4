package runtime

import (
	"sort"
	"time"

	"github.com/vowlang/vow/spec"
)

// Record is one opaque entity record.
type Record = map[string]any

// Context is the live entity store for a single test case.
//
// The zero value is not usable; construct with NewContext. Records handed
// in and out are always deep-copied, so callers can never mutate the store
// through a retained reference.
type Context struct {
	initial  map[string][]Record
	entities map[string][]Record
}

// NewContext creates a store seeded with the given initial data. The data
// is deep-copied; Reset restores exactly this state.
func NewContext(initial map[string][]Record) *Context {
	c := &Context{initial: copyEntities(initial)}
	c.entities = copyEntities(c.initial)
	return c
}

// EntityNames returns the known entity names in sorted order.
func (c *Context) EntityNames() []string {
	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entity returns a read view over the named entity's current records.
// The proxy wraps a private copy: later store mutation does not show
// through an already-obtained proxy.
func (c *Context) Entity(name string) *EntityProxy {
	return newProxy(name, c.entities[name])
}

// Insert appends a record to the named entity, creating the entity if it
// does not exist yet. The record is deep-copied on the way in.
func (c *Context) Insert(name string, rec Record) {
	c.entities[name] = append(c.entities[name], spec.Copy(rec).(Record))
}

// Delete removes all records matching the criteria and reports how many
// were removed.
func (c *Context) Delete(name string, criteria Record) int {
	kept := c.entities[name][:0]
	removed := 0
	for _, rec := range c.entities[name] {
		if matches(rec, criteria) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	c.entities[name] = kept
	return removed
}

// Update applies the given field values to every record matching the
// criteria and reports how many records changed.
func (c *Context) Update(name string, criteria Record, fields Record) int {
	updated := 0
	for _, rec := range c.entities[name] {
		if !matches(rec, criteria) {
			continue
		}
		for k, v := range fields {
			rec[k] = spec.Copy(v)
		}
		updated++
	}
	return updated
}

// CaptureState takes a point-in-time snapshot of every entity. The
// snapshot holds deep, independent copies: mutating the live store after
// the call cannot alter the returned capture.
func (c *Context) CaptureState() *StateCapture {
	proxies := make(map[string]*EntityProxy, len(c.entities))
	for name, records := range c.entities {
		proxies[name] = newProxy(name, records)
	}
	return &StateCapture{takenAt: time.Now(), proxies: proxies}
}

// Reset restores the store to the initial data it was constructed with.
func (c *Context) Reset() {
	c.entities = copyEntities(c.initial)
}

func copyEntities(src map[string][]Record) map[string][]Record {
	dst := make(map[string][]Record, len(src))
	for name, records := range src {
		copied := make([]Record, len(records))
		for i, rec := range records {
			copied[i] = spec.Copy(rec).(Record)
		}
		dst[name] = copied
	}
	return dst
}

// matches reports whether every supplied criteria key/value pair is
// present and equal on the record.
func matches(rec Record, criteria Record) bool {
	for key, want := range criteria {
		got, ok := rec[key]
		if !ok || !spec.Equal(got, want) {
			return false
		}
	}
	return true
}
