package notify

import "time"

// EventTypeRunCompleted is the event_type value on every published event.
const EventTypeRunCompleted = "run_completed"

// RunCompletedEvent is published after every completed run. Downstream
// consumers (the static-site renderer, chat hooks) use it to decide
// whether a rebuild is worth triggering.
type RunCompletedEvent struct {
	EventType string `json:"event_type"` // always "run_completed"
	RunID     string `json:"run_id"`
	Outcome   string `json:"outcome"` // clean, warnings, errors

	// Record counts for the run.
	Records   int `json:"records"`
	Published int `json:"published"`

	// Diagnostic counts by severity.
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`

	// ChangedArtifacts lists the artifact destinations whose content
	// differs from the previous run. Empty means a rebuild is a no-op.
	ChangedArtifacts []string `json:"changed_artifacts"`

	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"` // when the run finished
}
