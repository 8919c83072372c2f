package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	runDuration      prom.Histogram
	stageResults     *prom.CounterVec
	runOutcome       *prom.CounterVec
	fetchDuration    *prom.HistogramVec
	sourceItems      *prom.CounterVec
	diagnostics      *prom.CounterVec
	fetchConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers the sync metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitesync",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual sync stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitesync",
			Name:      "run_duration_seconds",
			Help:      "Total sync run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitesync",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of individual source fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"})
		pr.sourceItems = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "source_items_total",
			Help:      "Items yielded per source across runs",
		}, []string{"source"})
		pr.diagnostics = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "diagnostics_total",
			Help:      "Diagnostics produced per run by severity",
		}, []string{"severity"})
		pr.fetchConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitesync",
			Name:      "fetch_concurrency",
			Help:      "Observed fetch worker concurrency for the last run",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.fetchDuration, pr.sourceItems, pr.diagnostics, pr.fetchConcurrency)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveSourceFetch(source string, d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(source, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddSourceItems(source string, n int) {
	if p == nil || p.sourceItems == nil {
		return
	}
	p.sourceItems.WithLabelValues(source).Add(float64(n))
}

func (p *PrometheusRecorder) AddDiagnostics(severity string, n int) {
	if p == nil || p.diagnostics == nil {
		return
	}
	p.diagnostics.WithLabelValues(severity).Add(float64(n))
}

func (p *PrometheusRecorder) SetFetchConcurrency(n int) {
	if p == nil || p.fetchConcurrency == nil {
		return
	}
	p.fetchConcurrency.Set(float64(n))
}
