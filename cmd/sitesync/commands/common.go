package commands

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/diag"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitesync.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync      SyncCmd      `cmd:"" help:"Run the full pipeline: fetch, validate, emit"`
	Validate  ValidateCmd  `cmd:"" help:"Fetch and validate without writing artifacts"`
	CMSConfig CMSConfigCmd `cmd:"" name:"cms-config" help:"Regenerate the CMS configuration from the schema alone"`
	Schema    SchemaCmd    `cmd:"" help:"Print the registered content kinds and their fields"`
	History   HistoryCmd   `cmd:"" help:"Show recorded run history"`
	Schedule  ScheduleCmd  `cmd:"" help:"Run the pipeline on a schedule"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the configuration file and narrows it to the selected
// sources when --source flags were given.
func loadConfig(root *CLI, only []string) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(only) > 0 {
		selected, err := selectSources(cfg.Sources, only)
		if err != nil {
			return nil, err
		}
		cfg.Sources = selected
	}
	return cfg, nil
}

// selectSources filters the configured sources down to the named ones,
// preserving config order. Every requested name must exist.
func selectSources(sources []config.Source, names []string) ([]config.Source, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var selected []config.Source
	for _, src := range sources {
		if wanted[src.Name] {
			selected = append(selected, src)
			delete(wanted, src.Name)
		}
	}
	for name := range wanted {
		return nil, fmt.Errorf("source %q not found in configuration", name)
	}
	return selected, nil
}

// newClient wires the three fetchers behind one locator router. Git clones
// land in a temp dir the returned cleanup removes.
func newClient() (fetch.Client, func(), error) {
	cloneDir, err := os.MkdirTemp("", "sitesync-clones-")
	if err != nil {
		return nil, nil, fmt.Errorf("create clone dir: %w", err)
	}

	gitFetcher := fetch.NewGitFetcher(cloneDir)
	cleanup := func() {
		if err := gitFetcher.CleanUp(); err != nil {
			slog.Warn("Failed to clean up git clones", slog.Any(logfields.Error, err))
		}
		if err := os.RemoveAll(cloneDir); err != nil {
			slog.Warn("Failed to remove clone dir", slog.Any(logfields.Error, err))
		}
	}

	router := fetch.NewRouter(
		fetch.NewFileFetcher(""),
		fetch.NewHTTPFetcher(30*time.Second),
		gitFetcher,
	)
	return router, cleanup, nil
}

// printReport writes every diagnostic and a count summary to stdout.
func printReport(report *diag.Report, quiet bool) {
	for _, d := range report.Diagnostics() {
		if quiet && d.Severity != diag.SeverityError {
			continue
		}
		fmt.Println(d.String())
	}

	if report.Len() == 0 {
		return
	}
	fmt.Printf("\n%d error(s), %d warning(s)\n", report.ErrorCount(), report.WarningCount())

	counts := report.CountsByRule()
	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	for _, rule := range rules {
		fmt.Printf("  %-20s %d\n", rule, counts[rule])
	}
}

// strictExit converts a non-clean outcome into a process failure when
// strict mode is on. Artifacts stay written either way.
func strictExit(strict bool, outcome diag.Outcome) error {
	if strict && outcome != diag.OutcomeClean {
		return fmt.Errorf("run finished with outcome %q", outcome)
	}
	return nil
}
