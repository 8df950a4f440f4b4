package runtime

import (
	"time"

	"github.com/vowlang/vow/spec"
)

// EntityProxy is a named read view over a collection of opaque records.
// It wraps a private copy of the data, never a live reference into the
// store it came from.
type EntityProxy struct {
	name    string
	records []Record
}

// newProxy deep-copies the records into a fresh proxy.
func newProxy(name string, records []Record) *EntityProxy {
	copied := make([]Record, len(records))
	for i, rec := range records {
		copied[i] = spec.Copy(rec).(Record)
	}
	return &EntityProxy{name: name, records: copied}
}

// Name returns the entity name this proxy reads.
func (p *EntityProxy) Name() string { return p.name }

// Exists reports whether any record matches all criteria pairs.
func (p *EntityProxy) Exists(criteria Record) bool {
	return p.Lookup(criteria) != nil
}

// Lookup returns a copy of the first record matching all criteria pairs,
// or nil when nothing matches.
func (p *EntityProxy) Lookup(criteria Record) Record {
	for _, rec := range p.records {
		if matches(rec, criteria) {
			return spec.Copy(rec).(Record)
		}
	}
	return nil
}

// Count returns the number of records matching the criteria. A nil or
// empty criteria counts every record.
func (p *EntityProxy) Count(criteria Record) int {
	if len(criteria) == 0 {
		return len(p.records)
	}
	n := 0
	for _, rec := range p.records {
		if matches(rec, criteria) {
			n++
		}
	}
	return n
}

// GetAll returns copies of every record.
func (p *EntityProxy) GetAll() []Record {
	out := make([]Record, len(p.records))
	for i, rec := range p.records {
		out[i] = spec.Copy(rec).(Record)
	}
	return out
}

// StateCapture is an immutable point-in-time snapshot of every entity in a
// Context. Once created it never changes for the lifetime of the test it
// belongs to.
type StateCapture struct {
	takenAt time.Time
	proxies map[string]*EntityProxy
}

// TakenAt returns the capture timestamp.
func (s *StateCapture) TakenAt() time.Time { return s.takenAt }

// Entity returns the snapshot view of the named entity. Unknown names
// return an empty proxy so historical expressions degrade to "no records"
// rather than a nil dereference.
func (s *StateCapture) Entity(name string) *EntityProxy {
	if p, ok := s.proxies[name]; ok {
		return p
	}
	return &EntityProxy{name: name}
}
