package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/cmd/sitegen/commands"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("sitegen"),
		kong.Description("Recursive static site generator: Markdown, HTML and CSS with placeholder expansion."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := ctx.Run(global, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
