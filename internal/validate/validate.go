// Package validate runs the two validation passes over normalized
// records: per-record conformance against the kind's field definitions,
// then cross-record slug uniqueness and reference resolution. The
// per-record pass comes first because the cross-record checks assume
// well-typed slugs. Output is the full diagnostic list plus the subset of
// records with zero errors, which is what the emitters publish.
package validate

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/sitesync/internal/diag"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
	"git.home.luguber.info/inful/sitesync/internal/util/sets"
)

// Validator checks records against the schema registry.
type Validator struct {
	registry *schema.Registry
}

// New creates a Validator over the given registry.
func New(registry *schema.Registry) *Validator {
	return &Validator{registry: registry}
}

// Result is the validator's output.
type Result struct {
	// Report carries every diagnostic in production order.
	Report *diag.Report

	// Publishable holds the records with zero error-level diagnostics,
	// in input order.
	Publishable []record.Record
}

// Validate runs both passes in fixed order over the given records.
func (v *Validator) Validate(records []record.Record) Result {
	report := diag.NewReport()
	excluded := make([]bool, len(records))

	for i := range records {
		ds := v.checkRecord(&records[i])
		for _, d := range ds {
			if d.Severity == diag.SeverityError {
				excluded[i] = true
			}
		}
		report.Add(ds...)
	}

	v.checkSlugUniqueness(records, excluded, report)
	v.checkReferences(records, excluded, report)

	publishable := make([]record.Record, 0, len(records))
	for i := range records {
		if !excluded[i] {
			publishable = append(publishable, records[i])
		}
	}
	return Result{Report: report, Publishable: publishable}
}

// checkRecord is the per-record pass: required presence, type
// conformance, and the field rules, walked in the kind's field order.
func (v *Validator) checkRecord(rec *record.Record) []diag.Diagnostic {
	kind, err := v.registry.Lookup(rec.Kind)
	if err != nil {
		return []diag.Diagnostic{v.diagnostic(rec, diag.SeverityError, "", diag.RuleUnknownKind,
			fmt.Sprintf("kind %q is not registered", rec.Kind))}
	}

	var ds []diag.Diagnostic
	if rec.Slug == "" {
		ds = append(ds, v.diagnostic(rec, diag.SeverityError, "", diag.RuleRequired,
			"record has no slug and none could be derived"))
	}

	for _, def := range kind.Fields() {
		value, present := rec.Fields[def.Name]
		if !present {
			if def.Required {
				ds = append(ds, v.diagnostic(rec, diag.SeverityError, def.Name, diag.RuleRequired,
					"required field is missing"))
			}
			continue
		}
		ds = append(ds, v.checkValue(rec, def, value)...)
	}

	// Adapters only map declared fields, but records built in code can
	// carry extras.
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := kind.Field(name); !ok {
			ds = append(ds, v.diagnostic(rec, diag.SeverityWarning, name, diag.RuleUnknownField,
				"field is not declared on the kind"))
		}
	}

	return ds
}

// identity is a (kind, slug) record identity.
type identity struct {
	kind string
	slug string
}

// checkSlugUniqueness diagnoses the later record of every duplicate
// (kind, slug) pair. Records already excluded by the per-record pass do
// not claim slugs, so a valid later record can still publish.
func (v *Validator) checkSlugUniqueness(records []record.Record, excluded []bool, report *diag.Report) {
	seen := sets.New[identity]()
	for i := range records {
		if excluded[i] || records[i].Slug == "" {
			continue
		}
		id := identity{records[i].Kind, records[i].Slug}
		if seen.Contains(id) {
			report.Add(v.diagnostic(&records[i], diag.SeverityError, "", diag.RuleUniqueSlug,
				fmt.Sprintf("slug %q is already used by an earlier %s record", records[i].Slug, records[i].Kind)))
			excluded[i] = true
			continue
		}
		seen.Add(id)
	}
}

// checkReferences verifies that every reference field resolves to a
// record that survived the earlier checks. Resolution targets are
// snapshotted before any reference exclusion, so exclusions here do not
// cascade.
func (v *Validator) checkReferences(records []record.Record, excluded []bool, report *diag.Report) {
	known := sets.New[identity]()
	for i := range records {
		if !excluded[i] {
			known.Add(identity{records[i].Kind, records[i].Slug})
		}
	}

	for i := range records {
		if excluded[i] {
			continue
		}
		rec := &records[i]
		kind, err := v.registry.Lookup(rec.Kind)
		if err != nil {
			continue
		}
		for _, def := range kind.Fields() {
			if def.Type != schema.TypeReference {
				continue
			}
			value, ok := rec.Fields[def.Name]
			if !ok {
				continue
			}
			target, ok := value.AsReference()
			if !ok {
				continue
			}
			if !known.Contains(identity{def.TargetKind, target}) {
				report.Add(v.diagnostic(rec, diag.SeverityError, def.Name, diag.RuleReference,
					fmt.Sprintf("reference %q does not resolve to a %s record", target, def.TargetKind)))
				excluded[i] = true
			}
		}
	}
}

func (v *Validator) diagnostic(rec *record.Record, sev diag.Severity, field, rule, message string) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: sev,
		Kind:     rec.Kind,
		Slug:     rec.Slug,
		Field:    field,
		Rule:     rule,
		Message:  message,
		Source:   rec.Provenance.Adapter,
	}
}
