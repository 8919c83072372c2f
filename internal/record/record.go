// Package record defines the canonical content record shared by adapters,
// the validator, and the emitters. Records are built per run from a fresh
// source snapshot and are read-only after normalization.
package record

import "time"

// Record is one instance of a content kind. Its identity is the
// (Kind, Slug) pair; slug uniqueness within a kind is enforced by the
// validator, not here.
type Record struct {
	// Kind names the content kind this record instantiates.
	Kind string

	// Slug identifies the record within its kind. Empty until the
	// normalizer derives or adopts one.
	Slug string

	// Fields maps field names to typed values. Keys are a subset of the
	// kind's declared field names; absent optional fields are simply
	// missing from the map.
	Fields map[string]Value

	// Provenance records where the record came from.
	Provenance Provenance
}

// Field returns the named field value and whether it is present.
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Provenance describes the origin of a record.
type Provenance struct {
	// Adapter is the adapter name that produced the record.
	Adapter string

	// Locator is the source locator the record was fetched from.
	Locator string

	// FetchedAt is when the source snapshot was taken.
	FetchedAt time.Time

	// ContentHash fingerprints the raw item the record was built from.
	ContentHash string
}
