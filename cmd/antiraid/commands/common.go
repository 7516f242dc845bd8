package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/internal/setup"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

const (
	// RelayLogDir specifies where relay log files are stored.
	RelayLogDir = "logs/relay_logs"
	// CLILogDir specifies where logs of one-off commands are stored.
	CLILogDir = "logs/cli_logs"
	// ExportLogDir specifies where export log files are stored.
	ExportLogDir = "logs/export_logs"
)

var (
	ErrInvalidID         = errors.New("invalid Discord ID")
	ErrDiscordDisabled   = errors.New("no Discord token configured")
	ErrInvalidHashType   = errors.New("invalid hash type")
	ErrDurationRequired  = errors.New("--duration must be positive")
	ErrInvalidPruneDays  = errors.New("--prune-days must be between 0 and 7")
	ErrNegativeStingsArg = errors.New("--stings must not be negative")
)

func guildFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "guild",
		Aliases:  []string{"g"},
		Usage:    "Guild ID",
		Required: true,
	}
}

// parseID parses a snowflake flag value.
func parseID(c *cli.Command, name string) (snowflake.ID, error) {
	raw := c.String(name)

	id, err := snowflake.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w for --%s: %q", ErrInvalidID, name, raw)
	}

	return id, nil
}

// withApp initializes the application for the duration of fn.
func withApp(
	ctx context.Context, serviceType telemetry.ServiceType, logDir string, fn func(app *setup.App) error,
) error {
	app, err := setup.InitializeApp(ctx, serviceType, logDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.WithoutCancel(ctx))

	return fn(app)
}
