package commands

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/internal/database/service"
	"github.com/robalyx/antiraid/internal/setup"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

// StingsCommand groups the sting ledger queries.
func StingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stings",
		Usage: "Inspect and maintain the sting ledger",
		Commands: []*cli.Command{
			{
				Name:  "totals",
				Usage: "Show active sting totals of a guild per user",
				Flags: []cli.Flag{guildFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					guildID, err := parseID(c, "guild")
					if err != nil {
						return err
					}

					return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
						totals, err := app.DB.Service().Ledger().GuildStingTotals(ctx, guildID)
						if err != nil {
							return err
						}

						PrintTotals(c.Root().Writer, totals)

						return nil
					})
				},
			},
			{
				Name:  "user",
				Usage: "Show the active sting total applying to a user",
				Flags: []cli.Flag{
					guildFlag(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					guildID, err := parseID(c, "guild")
					if err != nil {
						return err
					}

					userID, err := parseID(c, "user")
					if err != nil {
						return err
					}

					return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
						total, err := app.DB.Service().Ledger().UserStings(ctx, guildID, userID)
						if err != nil {
							return err
						}

						fmt.Fprintf(c.Root().Writer, "User %s has %d active stings in guild %s\n", userID, total, guildID)

						return nil
					})
				},
			},
			{
				Name:  "expire",
				Usage: "Expire stings whose duration elapsed",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of stings loaded per pass",
						Value: service.DefaultExpiryBatchSize,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
						count, err := app.DB.Service().Ledger().ExpireStings(ctx, int(c.Int("batch-size")))
						if err != nil {
							return err
						}

						fmt.Fprintf(c.Root().Writer, "Expired %d stings\n", count)

						return nil
					})
				},
			},
		},
	}
}

// PrintTotals writes guild totals sorted by user ID.
func PrintTotals(w io.Writer, totals *service.GuildTotals) {
	users := make([]snowflake.ID, 0, len(totals.PerUser))
	for userID := range totals.PerUser {
		users = append(users, userID)
	}

	slices.Sort(users)

	fmt.Fprintf(w, "%-22s %s\n", "USER", "STINGS")

	for _, userID := range users {
		fmt.Fprintf(w, "%-22s %d\n", userID, totals.PerUser[userID])
	}

	fmt.Fprintf(w, "%-22s %d\n", "system", totals.System)
	fmt.Fprintf(w, "%-22s %d\n", "total", totals.Total)
}
