// Package daemon runs the sync pipeline on a schedule. Every tick is a
// full batch snapshot pass over all configured sources; nothing is
// watched or synced incrementally. The daemon optionally watches its own
// config file for safe reloads between runs and serves Prometheus
// metrics over HTTP.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/notify"
	"git.home.luguber.info/inful/sitesync/internal/pipeline"
	"git.home.luguber.info/inful/sitesync/internal/runlog"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// Daemon owns the scheduled run loop and its collaborators.
type Daemon struct {
	configPath string
	registry   *schema.Registry
	client     fetch.Client
	recorder   metrics.Recorder
	promReg    *prom.Registry
	store      *runlog.Store
	notifier   notify.Notifier

	// mu guards cfg and runner, which a config reload swaps between
	// runs.
	mu     sync.RWMutex
	cfg    *config.Config
	runner *pipeline.Runner

	// runMu serializes runs: a reload-triggered run never overlaps a
	// scheduled one.
	runMu sync.Mutex
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithRecorder sets the metrics recorder driven by each run. The
// Prometheus registry, when given, backs the /metrics endpoint.
func WithRecorder(rec metrics.Recorder, reg *prom.Registry) Option {
	return func(d *Daemon) {
		if rec != nil {
			d.recorder = rec
		}
		d.promReg = reg
	}
}

// WithRunLog sets the run history store.
func WithRunLog(store *runlog.Store) Option {
	return func(d *Daemon) { d.store = store }
}

// WithNotifier sets the run-completed notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Daemon) { d.notifier = n }
}

// New builds a Daemon for the given loaded configuration. The config
// path is kept so the file watcher can reload it.
func New(configPath string, cfg *config.Config, client fetch.Client, opts ...Option) (*Daemon, error) {
	registry, err := schema.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("build schema registry: %w", err)
	}

	d := &Daemon{
		configPath: configPath,
		registry:   registry,
		client:     client,
		recorder:   metrics.NoopRecorder{},
		notifier:   notify.Noop{},
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(d)
	}

	runner, err := pipeline.New(cfg, registry, client, pipeline.WithRecorder(d.recorder))
	if err != nil {
		return nil, err
	}
	d.runner = runner
	return d, nil
}

// Run starts the schedule and blocks until the context is canceled. The
// first run fires immediately; later runs follow the configured
// interval and never overlap.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.RLock()
	cfg := d.cfg
	d.mu.RUnlock()

	interval := cfg.Daemon.IntervalDuration()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "create scheduler").Fatal().Build()
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.runOnce(ctx) }),
		gocron.WithName("sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "schedule sync job").Fatal().Build()
	}

	slog.Info("Starting daemon",
		slog.String(logfields.Path, d.configPath),
		slog.Duration("interval", interval))
	scheduler.Start()

	var watcher *configWatcher
	if cfg.Daemon != nil && cfg.Daemon.WatchConfig {
		watcher, err = newConfigWatcher(d.configPath, cfg.Daemon.DebounceDuration(), func(next *config.Config) {
			d.applyConfig(ctx, next)
		})
		if err != nil {
			_ = scheduler.Shutdown()
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			_ = scheduler.Shutdown()
			return err
		}
	}

	var metricsSrv *metricsServer
	if cfg.Daemon != nil && cfg.Daemon.MetricsAddr != "" {
		metricsSrv = newMetricsServer(cfg.Daemon.MetricsAddr, d.promReg)
		metricsSrv.Start()
	}

	<-ctx.Done()
	slog.Info("Shutting down daemon")

	if watcher != nil {
		watcher.Stop()
	}
	if err := scheduler.Shutdown(); err != nil {
		slog.Error("Scheduler shutdown failed", slog.Any(logfields.Error, err))
	}
	if metricsSrv != nil {
		metricsSrv.Stop()
	}
	return nil
}

// runOnce executes a single scheduled pass: run the pipeline, record the
// run, notify downstream. Failures are logged; the schedule keeps going.
func (d *Daemon) runOnce(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.RLock()
	runner := d.runner
	d.mu.RUnlock()

	res, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Scheduled run failed", slog.Any(logfields.Error, err))
		return
	}
	d.finishRun(ctx, res)
}

// finishRun records the run and publishes the run-completed event.
// Without a run log every written artifact counts as changed.
func (d *Daemon) finishRun(ctx context.Context, res *pipeline.Result) {
	changed := res.Run.Artifacts
	if d.store != nil {
		recorded, err := d.store.Record(ctx, runlog.Run{
			RunID:     res.Run.RunID,
			Started:   res.Run.Start,
			Finished:  res.Run.End,
			Outcome:   string(res.Run.Outcome),
			Records:   res.Run.Records,
			Published: res.Run.Published,
			Errors:    res.Report.ErrorCount(),
			Warnings:  res.Report.WarningCount(),
		}, res.Artifacts)
		if err != nil {
			slog.Error("Failed to record run", slog.Any(logfields.Error, err))
		} else {
			changed = recorded
		}
	}

	event := &notify.RunCompletedEvent{
		EventType:        notify.EventTypeRunCompleted,
		RunID:            res.Run.RunID,
		Outcome:          string(res.Run.Outcome),
		Records:          res.Run.Records,
		Published:        res.Run.Published,
		Errors:           res.Report.ErrorCount(),
		Warnings:         res.Report.WarningCount(),
		ChangedArtifacts: changed,
		DurationMs:       res.Run.Duration().Milliseconds(),
		Timestamp:        res.Run.End,
	}
	if err := d.notifier.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish run notification", slog.Any(logfields.Error, err))
	}
}

// applyConfig swaps in a reloaded configuration between runs. Schedule
// and endpoint settings need a restart; everything else applies to the
// next run. A config that cannot build a runner is rejected and the
// previous one stays active.
func (d *Daemon) applyConfig(ctx context.Context, next *config.Config) {
	runner, err := pipeline.New(next, d.registry, d.client, pipeline.WithRecorder(d.recorder))
	if err != nil {
		slog.Error("Reloaded config rejected; keeping previous configuration",
			slog.Any(logfields.Error, err))
		return
	}

	d.mu.Lock()
	previous := d.cfg
	d.cfg = next
	d.runner = runner
	d.mu.Unlock()

	if previous.Daemon.IntervalDuration() != next.Daemon.IntervalDuration() {
		slog.Warn("Interval change requires restart to take effect")
	}
	if metricsAddr(previous) != metricsAddr(next) {
		slog.Warn("Metrics address change requires restart to take effect")
	}

	slog.Info("Configuration reloaded", slog.Int(logfields.Count, len(next.Sources)))

	// Sources may have changed; re-sync now instead of waiting out the
	// interval.
	go d.runOnce(ctx)
}

func metricsAddr(cfg *config.Config) string {
	if cfg.Daemon == nil {
		return ""
	}
	return cfg.Daemon.MetricsAddr
}
