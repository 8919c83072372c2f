package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitesync/internal/pipeline"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// ValidateCmd implements the 'validate' command: fetch and validate all
// sources without writing any artifacts.
type ValidateCmd struct {
	Source []string `short:"s" help:"Only validate the named sources (repeatable)"`
	Strict bool     `help:"Exit non-zero when validation produced any diagnostics"`
	Quiet  bool     `short:"q" help:"Only print error-level diagnostics"`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, v.Source)
	if err != nil {
		return err
	}
	if v.Strict {
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

	res, err := runner.Check(context.Background())
	if err != nil {
		return err
	}

	printReport(res.Report, v.Quiet)
	fmt.Printf("Validation: %s (%d/%d records publishable)\n",
		res.Run.Outcome, res.Run.Published, res.Run.Records)

	return strictExit(cfg.Strict, res.Run.Outcome)
}
