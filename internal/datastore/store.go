// Package datastore holds the sample data shared between pipeline steps.
//
// A store is made of units: one per sample plus the distinguished project
// unit. Upstream steps (or the sample file) create entries, downstream steps
// read them and register their own outputs. Entries are never removed.
package datastore

import (
	"fmt"
	"sort"
	"strings"
)

// ProjectKey addresses the project-wide unit.
const ProjectKey = "project_data"

// Store is the shared, schema-checked sample data passed through every step.
type Store struct {
	title   string
	samples []string
	units   map[string]map[Slot]string
	schema  Schema
	// writes journals every Set in call order.
	writes []Registration
}

// New returns an empty store with the provided title and schema. A nil schema
// falls back to DefaultSchema.
func New(title string, schema Schema) *Store {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Store{
		title:  strings.TrimSpace(title),
		units:  map[string]map[Slot]string{ProjectKey: {}},
		schema: schema,
	}
}

// Title returns the project title.
func (s *Store) Title() string {
	return s.title
}

// Schema exposes the declared slots.
func (s *Store) Schema() Schema {
	return s.schema
}

// AddSample registers a sample, keeping insertion order.
func (s *Store) AddSample(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("datastore: sample name is required")
	}
	if name == ProjectKey {
		return fmt.Errorf("datastore: %s is reserved", ProjectKey)
	}
	if _, exists := s.units[name]; exists {
		return fmt.Errorf("datastore: duplicate sample %s", name)
	}
	s.units[name] = map[Slot]string{}
	s.samples = append(s.samples, name)
	return nil
}

// Samples returns sample names in registration order.
func (s *Store) Samples() []string {
	return append([]string(nil), s.samples...)
}

// HasUnit reports whether the unit key is known.
func (s *Store) HasUnit(unit string) bool {
	_, ok := s.units[unit]
	return ok
}

// Get returns the slot value or a *SlotError when it is absent.
func (s *Store) Get(unit string, slot Slot) (string, error) {
	value, ok := s.Lookup(unit, slot)
	if !ok {
		return "", &SlotError{Unit: unit, Slot: slot}
	}
	return value, nil
}

// Lookup returns the slot value and whether it exists.
func (s *Store) Lookup(unit string, slot Slot) (string, bool) {
	entries, ok := s.units[unit]
	if !ok {
		return "", false
	}
	value, ok := entries[slot]
	return value, ok
}

// Has reports whether the unit holds the slot.
func (s *Store) Has(unit string, slot Slot) bool {
	_, ok := s.Lookup(unit, slot)
	return ok
}

// Set writes a slot value. The unit must exist and the slot must be declared.
func (s *Store) Set(unit string, slot Slot, value string) error {
	if !s.schema.Knows(slot) {
		return &UndeclaredSlotError{Slot: slot}
	}
	entries, ok := s.units[unit]
	if !ok {
		return fmt.Errorf("datastore: unknown unit %s", unit)
	}
	entries[slot] = value
	s.writes = append(s.writes, Registration{Unit: unit, Slot: slot, Value: value})
	return nil
}

// SetAll writes a batch of registrations. Every entry is checked first, so
// either all of them land or none do.
func (s *Store) SetAll(regs []Registration) error {
	for _, reg := range regs {
		if !s.schema.Knows(reg.Slot) {
			return &UndeclaredSlotError{Slot: reg.Slot}
		}
		if !s.HasUnit(reg.Unit) {
			return fmt.Errorf("datastore: unknown unit %s", reg.Unit)
		}
	}
	for _, reg := range regs {
		if err := s.Set(reg.Unit, reg.Slot, reg.Value); err != nil {
			return err
		}
	}
	return nil
}

// Slots returns the slots held by a unit, sorted by name.
func (s *Store) Slots(unit string) []Slot {
	entries := s.units[unit]
	out := make([]Slot, 0, len(entries))
	for slot := range entries {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registration records one slot written during a step.
type Registration struct {
	Unit  string
	Slot  Slot
	Value string
}

// Mark returns a position in the write journal for a later WritesSince.
func (s *Store) Mark() int {
	return len(s.writes)
}

// WritesSince lists every slot written after mark, in first-write order.
// A slot written more than once appears once with its latest value, even
// when the value did not change.
func (s *Store) WritesSince(mark int) []Registration {
	if mark < 0 || mark > len(s.writes) {
		mark = 0
	}
	type key struct {
		unit string
		slot Slot
	}
	index := map[key]int{}
	var out []Registration
	for _, reg := range s.writes[mark:] {
		k := key{reg.Unit, reg.Slot}
		if at, seen := index[k]; seen {
			out[at].Value = reg.Value
			continue
		}
		index[k] = len(out)
		out = append(out, reg)
	}
	return out
}
