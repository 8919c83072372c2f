package validate

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"git.home.luguber.info/inful/sitesync/internal/diag"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// violationSeverity grades a violation on a present field: error on
// required fields, warning on optional ones unless the rule marks them
// required-if-present.
func violationSeverity(def schema.FieldDef) diag.Severity {
	if def.Required || def.Rule.RequiredIfPresent {
		return diag.SeverityError
	}
	return diag.SeverityWarning
}

// checkValue checks one present field value: type conformance first, then
// the field rule. A type mismatch short-circuits the rule checks, which
// assume a conforming value.
func (v *Validator) checkValue(rec *record.Record, def schema.FieldDef, value record.Value) []diag.Diagnostic {
	sev := violationSeverity(def)

	if value.Type() != def.Type.RecordType() {
		return []diag.Diagnostic{v.diagnostic(rec, sev, def.Name, diag.RuleType,
			fmt.Sprintf("expected %s, got %s", def.Type, value.Type()))}
	}

	var ds []diag.Diagnostic

	if p := def.Pattern(); p != nil && !p.MatchString(value.Text()) {
		ds = append(ds, v.diagnostic(rec, sev, def.Name, diag.RulePattern,
			fmt.Sprintf("value %q does not match pattern %s", value.Text(), def.Rule.Pattern)))
	}

	if def.Rule.Enum != "" {
		allowed, _ := v.registry.EnumValues(def.Rule.Enum)
		if !slices.Contains(allowed, value.Text()) {
			ds = append(ds, v.diagnostic(rec, sev, def.Name, diag.RuleEnum,
				fmt.Sprintf("value %q is not in enum set %q", value.Text(), def.Rule.Enum)))
		}
	}

	if def.Rule.MinLen > 0 || def.Rule.MaxLen > 0 {
		if n, measurable := valueLength(value); measurable {
			if def.Rule.MinLen > 0 && n < def.Rule.MinLen {
				ds = append(ds, v.diagnostic(rec, sev, def.Name, diag.RuleLength,
					fmt.Sprintf("length %d is below the minimum of %d", n, def.Rule.MinLen)))
			}
			if def.Rule.MaxLen > 0 && n > def.Rule.MaxLen {
				ds = append(ds, v.diagnostic(rec, sev, def.Name, diag.RuleLength,
					fmt.Sprintf("length %d exceeds the maximum of %d", n, def.Rule.MaxLen)))
			}
		}
	}

	return ds
}

// valueLength measures what a length rule bounds: characters for textual
// values, items for lists.
func valueLength(value record.Value) (int, bool) {
	switch value.Type() {
	case record.TypeString, record.TypeReference:
		return utf8.RuneCountInString(value.Text()), true
	case record.TypeStringList:
		items, _ := value.AsList()
		return len(items), true
	default:
		return 0, false
	}
}
