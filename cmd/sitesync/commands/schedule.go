package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/daemon"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/notify"
	"git.home.luguber.info/inful/sitesync/internal/runlog"
)

// ScheduleCmd implements the 'schedule' command: batch re-runs of the
// pipeline on an interval until interrupted.
type ScheduleCmd struct {
	Interval string `help:"Override the configured run interval (e.g. 30m)"`
}

func (s *ScheduleCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, nil)
	if err != nil {
		return err
	}
	if cfg.Daemon == nil {
		cfg.Daemon = &config.DaemonConfig{}
	}
	if s.Interval != "" {
		cfg.Daemon.Interval = s.Interval
	}

	client, cleanup, err := newClient()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []daemon.Option{}

	promReg := prom.NewRegistry()
	opts = append(opts, daemon.WithRecorder(metrics.NewPrometheusRecorder(promReg), promReg))

	if cfg.RunLog != nil {
		store, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return fmt.Errorf("open run log: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close run log", slog.Any(logfields.Error, err))
			}
		}()
		opts = append(opts, daemon.WithRunLog(store))
	}

	if cfg.Notify != nil {
		notifier, err := notify.NewNATS(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			return fmt.Errorf("connect notifier: %w", err)
		}
		defer func() {
			if err := notifier.Close(); err != nil {
				slog.Warn("Failed to close notifier", slog.Any(logfields.Error, err))
			}
		}()
		opts = append(opts, daemon.WithNotifier(notifier))
	}

	d, err := daemon.New(root.Config, cfg, client, opts...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return d.Run(ctx)
}
