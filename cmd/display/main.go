package main

import (
	"log"
	"os"

	displaycli "github.com/go-barry/display/cli"
	clilib "github.com/urfave/cli/v2"
)

func runApp(args []string) error {
	app := &clilib.App{
		Name:  "display",
		Usage: "Serve a landing page and a form page rendered from HTML templates",
		Commands: []*clilib.Command{
			displaycli.InitCommand,
			displaycli.DevCommand,
			displaycli.ProdCommand,
			displaycli.CleanCommand,
			displaycli.CheckCommand,
			displaycli.InfoCommand,
		},
		DefaultCommand: displaycli.DevCommand.Name,
	}

	return app.Run(args)
}

func main() {
	if err := runApp(os.Args); err != nil {
		log.Fatal(err)
	}
}
