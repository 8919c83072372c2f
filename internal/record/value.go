package record

import (
	"time"
)

// Type identifies the concrete type held by a Value.
type Type uint8

const (
	// TypeString holds free-form text.
	TypeString Type = iota

	// TypeNumber holds a numeric value.
	TypeNumber

	// TypeDate holds a timestamp, optionally date-only.
	TypeDate

	// TypeStringList holds an ordered list of strings.
	TypeStringList

	// TypeReference holds the slug of a record in another kind.
	TypeReference

	// TypeObject holds a nested map of values.
	TypeObject
)

// String returns the type name used in diagnostics.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeStringList:
		return "string-list"
	case TypeReference:
		return "reference"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a typed field value. The zero value is an empty string.
type Value struct {
	typ      Type
	str      string
	num      float64
	date     time.Time
	dateOnly bool
	list     []string
	obj      map[string]Value
}

// String creates a text value.
func String(s string) Value {
	return Value{typ: TypeString, str: s}
}

// Number creates a numeric value.
func Number(n float64) Value {
	return Value{typ: TypeNumber, num: n}
}

// Date creates a timestamp value rendered as RFC 3339 in UTC.
func Date(t time.Time) Value {
	return Value{typ: TypeDate, date: t.UTC()}
}

// DateOnly creates a calendar-date value rendered as YYYY-MM-DD.
func DateOnly(t time.Time) Value {
	return Value{typ: TypeDate, date: t.UTC(), dateOnly: true}
}

// List creates a string-list value.
func List(items ...string) Value {
	return Value{typ: TypeStringList, list: items}
}

// Reference creates a reference value holding the target record's slug.
func Reference(slug string) Value {
	return Value{typ: TypeReference, str: slug}
}

// Object creates a nested-object value.
func Object(fields map[string]Value) Value {
	return Value{typ: TypeObject, obj: fields}
}

// Type returns the value's concrete type.
func (v Value) Type() Type { return v.typ }

// AsString returns the text content for string values.
func (v Value) AsString() (string, bool) {
	if v.typ == TypeString {
		return v.str, true
	}
	return "", false
}

// AsNumber returns the numeric content for number values.
func (v Value) AsNumber() (float64, bool) {
	if v.typ == TypeNumber {
		return v.num, true
	}
	return 0, false
}

// AsDate returns the timestamp for date values.
func (v Value) AsDate() (time.Time, bool) {
	if v.typ == TypeDate {
		return v.date, true
	}
	return time.Time{}, false
}

// IsDateOnly reports whether a date value carries no time component.
func (v Value) IsDateOnly() bool {
	return v.typ == TypeDate && v.dateOnly
}

// AsList returns the items for string-list values.
func (v Value) AsList() ([]string, bool) {
	if v.typ == TypeStringList {
		return v.list, true
	}
	return nil, false
}

// AsReference returns the target slug for reference values.
func (v Value) AsReference() (string, bool) {
	if v.typ == TypeReference {
		return v.str, true
	}
	return "", false
}

// AsObject returns the nested fields for object values.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.typ == TypeObject {
		return v.obj, true
	}
	return nil, false
}

// Text returns the string form used for slug derivation and rule matching.
// Non-textual values return the empty string.
func (v Value) Text() string {
	switch v.typ {
	case TypeString, TypeReference:
		return v.str
	case TypeDate:
		return v.formatDate()
	default:
		return ""
	}
}

// Plain converts the value to a plain Go representation for serialization.
// Dates become formatted strings; emitters are responsible for ordering the
// keys of nested object maps.
func (v Value) Plain() any {
	switch v.typ {
	case TypeString, TypeReference:
		return v.str
	case TypeNumber:
		return v.num
	case TypeDate:
		return v.formatDate()
	case TypeStringList:
		if v.list == nil {
			return []string{}
		}
		return v.list
	case TypeObject:
		out := make(map[string]any, len(v.obj))
		for k, val := range v.obj {
			out[k] = val.Plain()
		}
		return out
	default:
		return nil
	}
}

func (v Value) formatDate() string {
	if v.dateOnly {
		return v.date.Format("2006-01-02")
	}
	return v.date.Format(time.RFC3339)
}

// Equal reports deep equality between two values.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeString, TypeReference:
		return v.str == other.str
	case TypeNumber:
		return v.num == other.num
	case TypeDate:
		return v.date.Equal(other.date) && v.dateOnly == other.dateOnly
	case TypeStringList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	case TypeObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, val := range v.obj {
			ov, ok := other.obj[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
