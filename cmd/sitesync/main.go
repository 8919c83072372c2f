package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitesync/cmd/sitesync/commands"
	"git.home.luguber.info/inful/sitesync/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sitesync"),
		kong.Description("Sync heterogeneous content sources into site data and CMS configuration."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
