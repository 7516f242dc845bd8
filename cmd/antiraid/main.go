package main

import (
	"context"
	"log"
	"os"

	"github.com/robalyx/antiraid/cmd/antiraid/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "antiraid",
		Usage: "Anti-raid event relay and ledger tooling",
		Commands: []*cli.Command{
			commands.RelayCommand(),
			commands.StingsCommand(),
			commands.ModerateCommand(),
			commands.ExportCommand(),
		},
	}

	return app.Run(context.Background(), os.Args)
}
