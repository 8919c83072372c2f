package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitesync/internal/runlog"
)

// HistoryCmd implements the 'history' command: recent runs from the run
// log, newest first.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of runs to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, nil)
	if err != nil {
		return err
	}
	if cfg.RunLog == nil {
		return fmt.Errorf("no run log configured; set runlog.path in %s", root.Config)
	}

	store, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.History(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-8s  %9s  %7s  %7s\n",
		"RUN", "FINISHED", "OUTCOME", "PUBLISHED", "ERRORS", "CHANGED")
	for _, e := range entries {
		fmt.Printf("%-36s  %-20s  %-8s  %4d/%4d  %7d  %7d\n",
			e.RunID,
			e.Finished.Format("2006-01-02 15:04:05"),
			e.Outcome,
			e.Published, e.Records,
			e.Errors,
			e.Changed)
	}
	return nil
}
