package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[govmond] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "govmond"
	app.Usage = "Validator governance registry and block seal monitor daemon (govmond)."
	app.Commands = append(app.Commands, initCommand, startCommand, selectorCommand)
	app.Commands = append(app.Commands, queryCommands...)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
