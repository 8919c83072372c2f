// Package diag defines the diagnostics produced across a pipeline run.
// Diagnostics are created, appended, and reported; they are never mutated.
package diag

import (
	"fmt"
	"strings"
)

// Severity indicates the impact of a diagnostic.
type Severity int

const (
	// SeverityWarning indicates an issue that does not suppress emission.
	SeverityWarning Severity = iota

	// SeverityError indicates an issue that excludes the affected record
	// from the publishable set.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Rule identifiers used in diagnostics. Counting by rule gives the exit
// summary its per-category breakdown.
const (
	RuleRequired          = "required"
	RuleType              = "type"
	RulePattern           = "pattern"
	RuleEnum              = "enum"
	RuleLength            = "length"
	RuleUniqueSlug        = "unique-slug"
	RuleReference         = "reference"
	RuleUnknownKind       = "unknown-kind"
	RuleUnknownField      = "unknown-field"
	RuleItemSkipped       = "item-skipped"
	RuleSourceUnavailable = "source-unavailable"
	RuleEmitFailed        = "emit-failed"
)

// Diagnostic is one finding about a record, a source, or the schema.
type Diagnostic struct {
	// Severity is the diagnostic's impact level.
	Severity Severity

	// Kind and Slug identify the offending record. Both empty means the
	// diagnostic is schema-level rather than record-specific.
	Kind string
	Slug string

	// Field names the offending field, when the finding is field-scoped.
	Field string

	// Rule identifies the violated rule.
	Rule string

	// Message is the human-readable description.
	Message string

	// Source names the content source the finding originated from, when
	// known.
	Source string
}

// SchemaLevel reports whether the diagnostic is not tied to a record.
func (d Diagnostic) SchemaLevel() bool { return d.Kind == "" && d.Slug == "" }

// String renders the diagnostic for log and console output.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.Severity, d.Rule)
	if d.Kind != "" {
		fmt.Fprintf(&b, " %s", d.Kind)
		if d.Slug != "" {
			fmt.Fprintf(&b, "/%s", d.Slug)
		}
	}
	if d.Field != "" {
		fmt.Fprintf(&b, " field %q", d.Field)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	if d.Source != "" {
		fmt.Fprintf(&b, " (source %s)", d.Source)
	}
	return b.String()
}

// Outcome summarizes a run.
type Outcome string

const (
	OutcomeClean    Outcome = "clean"
	OutcomeWarnings Outcome = "warnings"
	OutcomeErrors   Outcome = "errors"
)

// Report is the ordered collection of diagnostics for one run. The run's
// outcome is the full list; ordering follows production order.
type Report struct {
	diagnostics []Diagnostic
}

// NewReport creates an empty report.
func NewReport() *Report { return &Report{} }

// Add appends diagnostics to the report.
func (r *Report) Add(ds ...Diagnostic) {
	r.diagnostics = append(r.diagnostics, ds...)
}

// Diagnostics returns all diagnostics in production order. Callers must not
// modify the returned slice.
func (r *Report) Diagnostics() []Diagnostic { return r.diagnostics }

// Len returns the number of diagnostics.
func (r *Report) Len() int { return len(r.diagnostics) }

// HasErrors reports whether any error-level diagnostics exist.
func (r *Report) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-level diagnostics exist.
func (r *Report) HasWarnings() bool {
	for _, d := range r.diagnostics {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level diagnostics.
func (r *Report) ErrorCount() int {
	count := 0
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level diagnostics.
func (r *Report) WarningCount() int {
	count := 0
	for _, d := range r.diagnostics {
		if d.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// CountsByRule returns diagnostic counts keyed by rule identifier.
func (r *Report) CountsByRule() map[string]int {
	counts := make(map[string]int)
	for _, d := range r.diagnostics {
		counts[d.Rule]++
	}
	return counts
}

// ForRecord returns the diagnostics attached to one record identity.
func (r *Report) ForRecord(kind, slug string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.diagnostics {
		if d.Kind == kind && d.Slug == slug {
			out = append(out, d)
		}
	}
	return out
}

// Outcome derives the run outcome from the collected diagnostics.
func (r *Report) Outcome() Outcome {
	switch {
	case r.HasErrors():
		return OutcomeErrors
	case r.HasWarnings():
		return OutcomeWarnings
	default:
		return OutcomeClean
	}
}
