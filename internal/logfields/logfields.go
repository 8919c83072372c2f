// Package logfields defines canonical field names for structured logging.
// Using these constants keeps log output greppable across packages.
package logfields

const (
	// RunID identifies a single pipeline run.
	RunID = "run_id"

	// Source names a configured content source.
	Source = "source"

	// Kind names a content kind from the schema registry.
	Kind = "kind"

	// Slug identifies a single content record.
	Slug = "slug"

	// Stage names a pipeline stage.
	Stage = "stage"

	// Count carries an item or record count.
	Count = "count"

	// DurationMS carries elapsed time in milliseconds.
	DurationMS = "duration_ms"

	// Path carries a filesystem path.
	Path = "path"

	// URL carries a remote location.
	URL = "url"

	// Artifact names an emitted output file.
	Artifact = "artifact"

	// Outcome carries a run outcome (clean, warnings, errors).
	Outcome = "outcome"

	// Error carries an error message.
	Error = "error"
)
