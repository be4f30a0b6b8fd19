package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pub/cmd/pub/commands"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}
	ctx := kong.Parse(cli,
		kong.Name("pub"),
		kong.Description("Compile a directory of pages, styles, scripts and components into a static site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
