// Package schema declares the content kinds a site is built from. The
// registry is constructed once at process start and shared read-only with
// every component that needs it; both emitters derive their output shape
// from it, which is what keeps site data and CMS configuration in sync.
package schema

import (
	"regexp"

	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
)

// FieldType is the semantic type of a field.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeNumber     FieldType = "number"
	TypeDate       FieldType = "date"
	TypeEnum       FieldType = "enum"
	TypeStringList FieldType = "string-list"
	TypeReference  FieldType = "reference"
	TypeObject     FieldType = "object"
)

// RecordType maps a FieldType to the record.Type a conforming value carries.
func (t FieldType) RecordType() record.Type {
	switch t {
	case TypeNumber:
		return record.TypeNumber
	case TypeDate:
		return record.TypeDate
	case TypeStringList:
		return record.TypeStringList
	case TypeReference:
		return record.TypeReference
	case TypeObject:
		return record.TypeObject
	default:
		return record.TypeString
	}
}

// Rule constrains a field's values. The zero Rule imposes no constraint.
type Rule struct {
	// Pattern is a regular expression the value's text form must match.
	Pattern string

	// Enum names a registered enum set the value must belong to.
	Enum string

	// MinLen and MaxLen bound string length or list size. Zero means
	// unbounded.
	MinLen int
	MaxLen int

	// RequiredIfPresent upgrades rule violations on an optional field
	// from warning to error.
	RequiredIfPresent bool
}

// IsZero reports whether the rule imposes any constraint.
func (r Rule) IsZero() bool {
	return r.Pattern == "" && r.Enum == "" && r.MinLen == 0 && r.MaxLen == 0
}

// FieldDef describes one field of a content kind. Immutable once the
// registry is built.
type FieldDef struct {
	// Name is the field name, matched verbatim against source keys and
	// emitted verbatim into both artifacts.
	Name string

	// Type is the field's semantic type.
	Type FieldType

	// Required marks fields that must be present on every record.
	Required bool

	// Default is the value applied when an optional field is absent.
	Default foundation.Option[record.Value]

	// EmitDefault controls whether an absent optional field emits its
	// declared default or is omitted from site data.
	EmitDefault bool

	// Rule is the field's validation rule.
	Rule Rule

	// TargetKind names the kind a reference field points into. Only
	// meaningful for TypeReference.
	TargetKind string

	pattern *regexp.Regexp
}

// Pattern returns the compiled form of Rule.Pattern, or nil when the rule
// has no pattern.
func (d FieldDef) Pattern() *regexp.Regexp { return d.pattern }

// Kind is a named ordered list of field definitions. It is the handle
// returned by Registry.Define and the single source of truth for both
// emitters.
type Kind struct {
	name   string
	fields []FieldDef
	byName map[string]int
}

// Name returns the kind name.
func (k *Kind) Name() string { return k.name }

// Fields returns the field definitions in declaration order. Callers must
// not modify the returned slice.
func (k *Kind) Fields() []FieldDef { return k.fields }

// Field returns the named field definition and whether it exists.
func (k *Kind) Field(name string) (FieldDef, bool) {
	i, ok := k.byName[name]
	if !ok {
		return FieldDef{}, false
	}
	return k.fields[i], true
}

// FieldNames returns the field names in declaration order.
func (k *Kind) FieldNames() []string {
	names := make([]string, len(k.fields))
	for i, f := range k.fields {
		names[i] = f.Name
	}
	return names
}
