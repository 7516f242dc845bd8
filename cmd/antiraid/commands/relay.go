package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robalyx/antiraid/internal/redis"
	"github.com/robalyx/antiraid/internal/relay"
	"github.com/robalyx/antiraid/internal/setup"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

// RelayCommand runs the event relay until interrupted.
func RelayCommand() *cli.Command {
	return &cli.Command{
		Name:  "relay",
		Usage: "Relay events, track moderation actions and expire stings",
		Action: func(ctx context.Context, _ *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, telemetry.ServiceRelay, RelayLogDir, func(app *setup.App) error {
				lockClient, err := app.RedisManager.GetClient(redis.LockDBIndex)
				if err != nil {
					return err
				}

				relayCfg := &app.Config.Relay

				r := relay.New(&relay.Config{
					Channel:             app.Config.Common.Events.Channel,
					InstanceID:          app.LogManager.GetInstanceID(),
					CorrelationTimeout:  relayCfg.CorrelationTimeoutDuration(),
					ExpirySweepInterval: relayCfg.ExpirySweepIntervalDuration(),
					ExpiryBatchSize:     relayCfg.ExpiryBatchSize,
					MaxConcurrency:      relayCfg.MaxConcurrency,
				}, app.EventClient, lockClient, app.DB.Service().Ledger(), app.Logger)

				return r.Run(ctx)
			})
		},
	}
}
