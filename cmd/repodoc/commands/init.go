package commands

import (
	"fmt"

	"git.home.luguber.info/inful/repodoc/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	fmt.Fprintf(g.Out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		fmt.Fprintln(g.Out, "Initialization failed")
		return err
	}
	fmt.Fprintln(g.Out, "initialized successfully")
	return nil
}
