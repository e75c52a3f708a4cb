package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/steptimer/cmd/steptimer/commands"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}
	ctx := kong.Parse(cli,
		kong.Name("steptimer"),
		kong.Description("Interval timer engine: run step-tree timers, schedule them and serve their state."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(global, cli),
	)
	if err := ctx.Run(); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
