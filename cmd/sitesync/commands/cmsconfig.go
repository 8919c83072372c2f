package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitesync/internal/emit"
	"git.home.luguber.info/inful/sitesync/internal/emit/cmsconfig"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// CMSConfigCmd implements the 'cms-config' command. The CMS configuration
// is a pure schema projection, so it regenerates without loading any
// content - this is how the config gets refreshed after a schema change.
type CMSConfigCmd struct {
	Output string `short:"o" help:"Write to this path instead of the configured one; '-' prints to stdout"`
}

func (c *CMSConfigCmd) Run(_ *Global, root *CLI) error {
	registry, err := schema.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}

	dest := c.Output
	if dest == "" {
		// Fall back to the configured path; a missing config file is
		// fine when an explicit output was given.
		cfg, err := loadConfig(root, nil)
		if err != nil {
			return err
		}
		dest = cfg.Output.CMSConfigPath
	}

	if dest == "-" {
		artifact, err := cmsconfig.New(registry, cmsconfig.DefaultDest).Emit()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(artifact.Bytes)
		return err
	}

	artifact, err := cmsconfig.New(registry, filepath.Base(dest)).Emit()
	if err != nil {
		return err
	}
	if err := emit.Write(filepath.Dir(dest), []emit.Artifact{artifact}); err != nil {
		return err
	}
	fmt.Printf("CMS configuration written to %s\n", dest)
	return nil
}
