package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/robalyx/antiraid/internal/export"
	"github.com/robalyx/antiraid/internal/setup"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

// ExportCommand exports the ledger of a guild with pseudonymised targets.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the stings and punishments of a guild to SQLite and CSV",
		Flags: []cli.Flag{
			guildFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Base output directory for export files",
			},
			&cli.StringFlag{
				Name:     "salt",
				Aliases:  []string{"s"},
				Usage:    "Salt for hashing IDs",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "export-version",
				Aliases: []string{"v"},
				Value:   "1.0.0",
				Usage:   "Export version",
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Value:   "Antiraid ledger export",
				Usage:   "Export description",
			},
			&cli.StringFlag{
				Name:    "hash-type",
				Aliases: []string{"t"},
				Value:   string(export.HashTypeSHA256),
				Usage:   "Hash algorithm to use (argon2id or sha256)",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Usage:   "Number of concurrent hash operations",
				Value:   1,
			},
			&cli.UintFlag{
				Name:    "iterations",
				Aliases: []string{"i"},
				Usage:   "Number of hash iterations (defaults to 1 for sha256 and 16 for argon2id)",
			},
			&cli.UintFlag{
				Name:    "memory",
				Aliases: []string{"m"},
				Usage:   "Memory to use for Argon2id in MB",
				Value:   16,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			guildID, err := parseID(c, "guild")
			if err != nil {
				return err
			}

			config, err := ExportConfig(c)
			if err != nil {
				return err
			}

			// Each run writes into its own timestamped directory
			timestamp := time.Now().UTC().Format("2006-01-02_150405")
			outDir := filepath.Join(c.String("output"), guildID.String(), timestamp)

			return withApp(ctx, telemetry.ServiceExport, ExportLogDir, func(app *setup.App) error {
				summary, err := export.New(app.DB.Model(), outDir, config, app.Logger).Export(ctx, guildID)
				if err != nil {
					return fmt.Errorf("failed to export ledger: %w", err)
				}

				fmt.Fprintf(c.Root().Writer, "Exported %d stings and %d punishments (%d users) to %s\n",
					summary.Stings, summary.Punishments, summary.Targets, outDir)

				return nil
			})
		},
	}
}

// ExportConfig builds the export configuration from the command flags.
func ExportConfig(c *cli.Command) (*export.Config, error) {
	config := &export.Config{
		ExportVersion: c.String("export-version"),
		Salt:          c.String("salt"),
		Description:   c.String("description"),
		HashType:      c.String("hash-type"),
		Concurrency:   c.Int("concurrency"),
		Iterations:    uint32(c.Uint("iterations")), //nolint:gosec // -
	}

	switch export.HashType(config.HashType) {
	case export.HashTypeSHA256:
		if config.Iterations == 0 {
			config.Iterations = 1
		}
	case export.HashTypeArgon2id:
		if config.Iterations == 0 {
			config.Iterations = 16
		}

		config.Memory = uint32(c.Uint("memory")) //nolint:gosec // -
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidHashType, config.HashType)
	}

	return config, nil
}
