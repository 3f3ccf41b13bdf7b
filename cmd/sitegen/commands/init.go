package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = config.FileName
	}
	fmt.Printf("Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
