package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for run and stage metrics.
// Implementations may forward to Prometheus or anything else; the noop
// implementation allows optional injection without nil checks at call sites.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: clean|warnings|errors|failed|canceled
	ObserveSourceFetch(source string, d time.Duration, success bool)
	AddSourceItems(source string, n int)
	AddDiagnostics(severity string, n int)
	SetFetchConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) ObserveRunDuration(time.Duration)               {}
func (NoopRecorder) IncStageResult(string, ResultLabel)             {}
func (NoopRecorder) IncRunOutcome(string)                           {}
func (NoopRecorder) ObserveSourceFetch(string, time.Duration, bool) {}
func (NoopRecorder) AddSourceItems(string, int)                     {}
func (NoopRecorder) AddDiagnostics(string, int)                     {}
func (NoopRecorder) SetFetchConcurrency(int)                        {}
