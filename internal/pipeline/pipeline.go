// Package pipeline orchestrates sync runs: sources are fetched
// concurrently, their records normalized and validated against the schema
// registry, and the survivors emitted as site data and CMS configuration.
//
// Runs degrade rather than abort. Item and source failures become
// diagnostics on the run report; only configuration and registry errors
// stop a run before it starts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/diag"
	"git.home.luguber.info/inful/sitesync/internal/emit"
	"git.home.luguber.info/inful/sitesync/internal/emit/cmsconfig"
	"git.home.luguber.info/inful/sitesync/internal/emit/sitedata"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/normalize"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
	"git.home.luguber.info/inful/sitesync/internal/validate"
)

// Runner executes sync runs over a fixed set of configured sources.
type Runner struct {
	cfg        *config.Config
	registry   *schema.Registry
	sources    []ConfiguredSource
	normalizer *normalize.Normalizer
	validator  *validate.Validator
	recorder   metrics.Recorder
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder sets the metrics recorder. Defaults to a no-op.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New builds a Runner. Every configured source gets its adapter
// constructed up front, so misconfiguration surfaces here instead of
// mid-run.
func New(cfg *config.Config, registry *schema.Registry, client fetch.Client, opts ...Option) (*Runner, error) {
	sources, err := BuildSources(cfg, registry, client)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:        cfg,
		registry:   registry,
		sources:    sources,
		normalizer: normalize.New(registry),
		validator:  validate.New(registry),
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Result is everything a completed run produced.
type Result struct {
	Run         *RunReport
	Report      *diag.Report
	Publishable []record.Record

	// Artifacts carries the written artifact bytes, site data first,
	// so callers can hash them for change detection. Empty on
	// check-only runs.
	Artifacts []emit.Artifact
}

// runState is the mutable state threaded through the stages of one run.
type runState struct {
	run         *RunReport
	report      *diag.Report
	records     []record.Record
	publishable []record.Record
	artifacts   []emit.Artifact
}

// Run executes a full sync: fetch, validate, emit.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.execute(ctx, true)
}

// Check executes fetch and validation only. Nothing is written.
func (r *Runner) Check(ctx context.Context) (*Result, error) {
	return r.execute(ctx, false)
}

func (r *Runner) execute(ctx context.Context, emitArtifacts bool) (*Result, error) {
	st := &runState{run: newRunReport(uuid.NewString()), report: diag.NewReport()}
	st.run.Sources = len(r.sources)

	slog.Info("Starting run",
		slog.String(logfields.RunID, st.run.RunID),
		slog.Int(logfields.Count, len(r.sources)))

	stages := []struct {
		name string
		fn   Stage
	}{
		{StageFetch, r.stageFetchSources},
		{StageValidate, r.stageValidateRecords},
		{StageEmit, r.stageEmitArtifacts},
	}
	if !emitArtifacts {
		stages = stages[:2]
	}

	err := r.runStages(ctx, st, stages)

	st.run.End = time.Now()
	st.run.Outcome = st.report.Outcome()
	r.recorder.ObserveRunDuration(st.run.Duration())
	r.recorder.AddDiagnostics(diag.SeverityError.String(), st.report.ErrorCount())
	r.recorder.AddDiagnostics(diag.SeverityWarning.String(), st.report.WarningCount())

	result := &Result{Run: st.run, Report: st.report, Publishable: st.publishable, Artifacts: st.artifacts}
	if err != nil {
		label := "failed"
		var se *StageError
		if errors.As(err, &se) && se.Kind == StageErrorCanceled {
			label = "canceled"
		}
		r.recorder.IncRunOutcome(label)
		return result, err
	}

	r.recorder.IncRunOutcome(string(st.run.Outcome))
	slog.Info("Run finished",
		slog.String(logfields.RunID, st.run.RunID),
		slog.String(logfields.Outcome, string(st.run.Outcome)),
		slog.Int("records", st.run.Records),
		slog.Int("published", st.run.Published),
		slog.Int64(logfields.DurationMS, st.run.Duration().Milliseconds()))
	return result, nil
}

func (r *Runner) stageValidateRecords(ctx context.Context, st *runState) error {
	res := r.validator.Validate(st.records)
	st.report.Add(res.Report.Diagnostics()...)
	st.publishable = res.Publishable
	st.run.Published = len(res.Publishable)

	if excluded := st.run.Excluded(); excluded > 0 {
		slog.Warn("Records excluded from publish", slog.Int(logfields.Count, excluded))
	}
	return nil
}

// stageEmitArtifacts builds both artifact sets concurrently and writes
// them. The destinations are disjoint, so a failure on one side never
// blocks the other; it becomes an emit-failed diagnostic instead.
func (r *Runner) stageEmitArtifacts(ctx context.Context, st *runState) error {
	var siteOpts []sitedata.Option
	if r.cfg.Output.Provenance {
		siteOpts = append(siteOpts, sitedata.WithProvenance())
	}
	site := sitedata.New(r.registry, siteOpts...)
	cms := cmsconfig.New(r.registry, filepath.Base(r.cfg.Output.CMSConfigPath))

	var (
		wg       sync.WaitGroup
		siteArts []emit.Artifact
		siteErr  error
		cmsArt   emit.Artifact
		cmsErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		siteArts, siteErr = site.Emit(st.publishable)
	}()
	go func() {
		defer wg.Done()
		cmsArt, cmsErr = cms.Emit()
	}()
	wg.Wait()

	var failures []error

	if siteErr == nil {
		siteErr = emit.Write(r.cfg.Output.SiteDataDir, siteArts)
	}
	if siteErr != nil {
		st.report.Add(emitFailed("site data", siteErr))
		failures = append(failures, siteErr)
	} else {
		for _, a := range siteArts {
			path := filepath.Join(r.cfg.Output.SiteDataDir, a.Dest)
			st.run.Artifacts = append(st.run.Artifacts, path)
			st.artifacts = append(st.artifacts, emit.Artifact{Dest: path, Bytes: a.Bytes})
			slog.Debug("Artifact written", slog.String(logfields.Artifact, path))
		}
	}

	if cmsErr == nil {
		cmsErr = emit.Write(filepath.Dir(r.cfg.Output.CMSConfigPath), []emit.Artifact{cmsArt})
	}
	if cmsErr != nil {
		st.report.Add(emitFailed("cms config", cmsErr))
		failures = append(failures, cmsErr)
	} else {
		st.run.Artifacts = append(st.run.Artifacts, r.cfg.Output.CMSConfigPath)
		st.artifacts = append(st.artifacts, emit.Artifact{Dest: r.cfg.Output.CMSConfigPath, Bytes: cmsArt.Bytes})
		slog.Debug("Artifact written", slog.String(logfields.Artifact, r.cfg.Output.CMSConfigPath))
	}

	slog.Info("Artifacts written", slog.Int(logfields.Count, len(st.run.Artifacts)))

	if len(failures) > 0 {
		return newWarnStageError(StageEmit, errors.Join(failures...))
	}
	return nil
}

func emitFailed(artifact string, err error) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SeverityError,
		Rule:     diag.RuleEmitFailed,
		Message:  fmt.Sprintf("%s: %v", artifact, err),
	}
}
