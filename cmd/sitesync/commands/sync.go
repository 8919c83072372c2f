package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/notify"
	"git.home.luguber.info/inful/sitesync/internal/pipeline"
	"git.home.luguber.info/inful/sitesync/internal/runlog"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// SyncCmd implements the 'sync' command: one full batch pass over the
// configured sources.
type SyncCmd struct {
	Source []string `short:"s" help:"Only sync the named sources (repeatable)"`
	Strict bool     `help:"Exit non-zero when the run produced any diagnostics"`
	Quiet  bool     `short:"q" help:"Only print error-level diagnostics"`
}

func (s *SyncCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, s.Source)
	if err != nil {
		return err
	}
	if s.Strict {
		cfg.Strict = true
	}

	registry, err := schema.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}

	client, cleanup, err := newClient()
	if err != nil {
		return err
	}
	defer cleanup()

	runner, err := pipeline.New(cfg, registry, client)
	if err != nil {
		return err
	}

	ctx := context.Background()
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	finishRun(ctx, cfg, res)
	printReport(res.Report, s.Quiet)
	fmt.Printf("Run %s: %s (%d/%d records published, %d artifacts)\n",
		res.Run.RunID, res.Run.Outcome, res.Run.Published, res.Run.Records, len(res.Run.Artifacts))

	return strictExit(cfg.Strict, res.Run.Outcome)
}

// finishRun records the run and publishes the run-completed event, when
// either is configured. Failures here never fail the sync itself.
func finishRun(ctx context.Context, cfg *config.Config, res *pipeline.Result) {
	changed := res.Run.Artifacts

	if cfg.RunLog != nil {
		store, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			slog.Warn("Failed to open run log", slog.Any(logfields.Error, err))
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					slog.Warn("Failed to close run log", slog.Any(logfields.Error, err))
				}
			}()
			recorded, err := store.Record(ctx, runlog.Run{
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
				slog.Warn("Failed to record run", slog.Any(logfields.Error, err))
			} else {
				changed = recorded
			}
		}
	}

	if cfg.Notify == nil {
		return
	}
	notifier, err := notify.NewNATS(cfg.Notify.URL, cfg.Notify.Subject)
	if err != nil {
		slog.Warn("Failed to connect notifier", slog.Any(logfields.Error, err))
		return
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			slog.Warn("Failed to close notifier", slog.Any(logfields.Error, err))
		}
	}()

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
	if err := notifier.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish run notification", slog.Any(logfields.Error, err))
	}
}
