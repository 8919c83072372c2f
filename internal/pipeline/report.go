package pipeline

import (
	"time"

	"git.home.luguber.info/inful/sitesync/internal/diag"
)

// RunReport summarizes one sync run for logging, the run log, and
// notifications.
type RunReport struct {
	RunID string
	Start time.Time
	End   time.Time

	// Sources is the number of configured sources; FailedSources counts
	// those that degraded to an empty contribution.
	Sources       int
	FailedSources int

	// FetchedItems counts raw items produced across all sources;
	// SkippedItems counts the ones dropped by item-scoped errors.
	FetchedItems int
	SkippedItems int

	// Records is the normalized record count entering validation;
	// Published the count surviving it.
	Records   int
	Published int

	StageDurations  map[string]time.Duration
	StageErrorKinds map[string]string

	Outcome diag.Outcome

	// Artifacts lists the destinations written, site data first.
	Artifacts []string
}

func newRunReport(id string) *RunReport {
	return &RunReport{
		RunID:           id,
		Start:           time.Now(),
		StageDurations:  map[string]time.Duration{},
		StageErrorKinds: map[string]string{},
	}
}

// Duration returns the wall-clock run time.
func (r *RunReport) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Excluded returns how many normalized records validation held back.
func (r *RunReport) Excluded() int {
	return r.Records - r.Published
}
