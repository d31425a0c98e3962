package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/repodoc/cmd/repodoc/commands"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/version"
)

func main() {
	cli := &commands.CLI{}
	g := &commands.Global{Out: os.Stdout, Err: os.Stderr}

	parser := kong.Parse(cli,
		kong.Name("repodoc"),
		kong.Description("Generate, review and iteratively improve repository READMEs."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	)

	err := parser.Run(cli)
	os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, g.Logger).Report(os.Stderr, err))
}
