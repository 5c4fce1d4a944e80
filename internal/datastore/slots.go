package datastore

import (
	"fmt"
	"sort"
	"strings"
)

// Slot names a single entry inside a store unit. Slot names are shared with
// other pipeline modules, so the literals below must not change.
type Slot string

const (
	FastaNucl           Slot = "fasta.nucl"
	FastaProt           Slot = "fasta.prot"
	BUSCO               Slot = "BUSCO"
	BUSCOLineage        Slot = "BUSCO.lineage"
	RSEMIndex           Slot = "RSEM_index"
	RSEMFasta           Slot = "RSEM_fasta"
	STARIndex           Slot = "STAR_index"
	STARFasta           Slot = "STAR_fasta"
	GTF                 Slot = "gtf"
	GFF3                Slot = "gff3"
	TranscriptToGeneMap Slot = "transcript-to-gene-map"
	AlleleToGeneMap     Slot = "allele-to-gene-map"
	NoPolyASubset       Slot = "no-polyA-subset"
)

// FastaSlot returns the fasta slot for a sequence type ("nucl" or "prot").
func FastaSlot(seqType string) Slot {
	return Slot("fasta." + strings.TrimSpace(seqType))
}

// Schema is the set of slots a store accepts.
type Schema map[Slot]struct{}

// DefaultSchema returns the slots produced or consumed by the built-in steps.
func DefaultSchema() Schema {
	return NewSchema(
		FastaNucl, FastaProt,
		BUSCO, BUSCOLineage,
		RSEMIndex, RSEMFasta,
		STARIndex, STARFasta,
		GTF, GFF3, TranscriptToGeneMap, AlleleToGeneMap, NoPolyASubset,
	)
}

// NewSchema builds a schema from the provided slots.
func NewSchema(slots ...Slot) Schema {
	schema := make(Schema, len(slots))
	for _, slot := range slots {
		schema.Declare(slot)
	}
	return schema
}

// Declare adds a slot to the schema. Blank names are ignored.
func (s Schema) Declare(slot Slot) {
	trimmed := Slot(strings.TrimSpace(string(slot)))
	if trimmed == "" {
		return
	}
	s[trimmed] = struct{}{}
}

// Knows reports whether the slot is declared.
func (s Schema) Knows(slot Slot) bool {
	_, ok := s[slot]
	return ok
}

// Slots returns the declared slots sorted by name.
func (s Schema) Slots() []Slot {
	out := make([]Slot, 0, len(s))
	for slot := range s {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SlotError is returned when a unit lacks a required slot.
type SlotError struct {
	Unit string
	Slot Slot
}

func (e *SlotError) Error() string {
	if e.Unit == ProjectKey {
		return fmt.Sprintf("datastore: no %s slot at project level", e.Slot)
	}
	return fmt.Sprintf("datastore: no %s slot for sample %s", e.Slot, e.Unit)
}

// UndeclaredSlotError is returned when writing a slot missing from the schema.
type UndeclaredSlotError struct {
	Slot Slot
}

func (e *UndeclaredSlotError) Error() string {
	return fmt.Sprintf("datastore: slot %q is not declared in the schema", string(e.Slot))
}
