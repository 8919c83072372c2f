package schema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// Reserved field names. The slug lives on the record itself and `_source`
// carries provenance in emitted output; neither may be declared as a field.
var reservedFieldNames = []string{"slug", "_source"}

var (
	// ErrDuplicateKind indicates a kind name was registered twice.
	ErrDuplicateKind = errors.New("duplicate kind")

	// ErrInvalidFieldDef indicates a field definition is malformed: a
	// reserved or duplicate name, a rule referencing an undefined enum,
	// or a default that does not conform to the field type.
	ErrInvalidFieldDef = errors.New("invalid field definition")

	// ErrUnknownKind indicates a lookup for an unregistered kind.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrDuplicateEnum indicates an enum set name was registered twice.
	ErrDuplicateEnum = errors.New("duplicate enum set")
)

// Registry holds every content kind and enum set. Registration order is
// preserved and significant: it determines default output ordering in both
// emitters so that regenerated artifacts are byte-stable when the schema
// itself is unchanged.
//
// A Registry is not safe for concurrent mutation; build it fully before
// sharing, after which all methods are read-only.
type Registry struct {
	kinds     []*Kind
	kindIndex map[string]int
	enums     map[string][]string
	enumOrder []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kindIndex: make(map[string]int),
		enums:     make(map[string][]string),
	}
}

// DefineEnum registers a named enum set. Enum sets referenced by field
// rules must be registered before the kinds that use them.
func (r *Registry) DefineEnum(name string, values ...string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrDuplicateEnum)
	}
	if _, exists := r.enums[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateEnum, name)
	}
	r.enums[name] = slices.Clone(values)
	r.enumOrder = append(r.enumOrder, name)
	return nil
}

// EnumValues returns the values of a registered enum set.
func (r *Registry) EnumValues(name string) ([]string, bool) {
	values, ok := r.enums[name]
	return values, ok
}

// Define registers a content kind with the given fields and returns its
// handle. Field definitions are validated and their rule patterns compiled
// here; a registered kind never changes afterwards.
func (r *Registry) Define(name string, fields []FieldDef) (*Kind, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty kind name", ErrInvalidFieldDef)
	}
	if _, exists := r.kindIndex[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateKind, name)
	}

	kind := &Kind{
		name:   name,
		fields: make([]FieldDef, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, def := range fields {
		if err := r.checkFieldDef(name, def); err != nil {
			return nil, err
		}
		if _, dup := kind.byName[def.Name]; dup {
			return nil, fmt.Errorf("%w: kind %q declares field %q twice", ErrInvalidFieldDef, name, def.Name)
		}
		if def.Rule.Pattern != "" {
			compiled, err := regexp.Compile(def.Rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: kind %q field %q pattern: %v", ErrInvalidFieldDef, name, def.Name, err)
			}
			def.pattern = compiled
		}
		kind.byName[def.Name] = len(kind.fields)
		kind.fields = append(kind.fields, def)
	}

	r.kindIndex[name] = len(r.kinds)
	r.kinds = append(r.kinds, kind)
	return kind, nil
}

func (r *Registry) checkFieldDef(kindName string, def FieldDef) error {
	if def.Name == "" {
		return fmt.Errorf("%w: kind %q has a field with an empty name", ErrInvalidFieldDef, kindName)
	}
	if slices.Contains(reservedFieldNames, def.Name) {
		return fmt.Errorf("%w: kind %q field %q is a reserved name", ErrInvalidFieldDef, kindName, def.Name)
	}
	if def.Rule.Enum != "" {
		if _, ok := r.enums[def.Rule.Enum]; !ok {
			return fmt.Errorf("%w: kind %q field %q references undefined enum %q", ErrInvalidFieldDef, kindName, def.Name, def.Rule.Enum)
		}
	}
	if def.Type == TypeEnum && def.Rule.Enum == "" {
		return fmt.Errorf("%w: kind %q field %q is enum-typed but names no enum set", ErrInvalidFieldDef, kindName, def.Name)
	}
	if def.Type == TypeReference && def.TargetKind == "" {
		return fmt.Errorf("%w: kind %q field %q is a reference but names no target kind", ErrInvalidFieldDef, kindName, def.Name)
	}
	if dv, ok := def.Default.Get(); ok {
		if dv.Type() != def.Type.RecordType() {
			return fmt.Errorf("%w: kind %q field %q default is %s, field type is %s", ErrInvalidFieldDef, kindName, def.Name, dv.Type(), def.Type)
		}
	}
	return nil
}

// Lookup returns the handle of a registered kind.
func (r *Registry) Lookup(name string) (*Kind, error) {
	i, ok := r.kindIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return r.kinds[i], nil
}

// Has reports whether a kind is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.kindIndex[name]
	return ok
}

// Kinds returns all registered kinds in registration order. Callers must
// not modify the returned slice.
func (r *Registry) Kinds() []*Kind { return r.kinds }
