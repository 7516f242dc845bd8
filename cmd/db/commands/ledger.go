package commands

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/service"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// transitionFunc moves a ledger entry out of the active state and returns its new state.
type transitionFunc func(
	ctx context.Context, ledger *service.LedgerService, id uuid.UUID, actor types.Target, note *string,
) (enum.LedgerState, error)

// LedgerCommands returns commands that void or handle ledger entries.
func LedgerCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		ledgerCommand(deps, "void-sting", "Void an active sting", voidSting),
		ledgerCommand(deps, "handle-sting", "Mark an active sting as handled", handleSting),
		ledgerCommand(deps, "void-punishment", "Void an active punishment", voidPunishment),
		ledgerCommand(deps, "handle-punishment", "Mark an active punishment as handled", handlePunishment),
	}
}

func ledgerCommand(deps *CLIDependencies, name, usage string, transition transitionFunc) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "actor",
				Usage: "Who performs the change (\"system\" or a Discord user ID)",
				Value: "system",
			},
			&cli.StringFlag{
				Name:  "note",
				Usage: "Note recorded in the handle log",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return ErrIDRequired
			}

			id, err := uuid.Parse(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid ID %q: %w", c.Args().First(), err)
			}

			actor, err := ParseActor(c.String("actor"))
			if err != nil {
				return err
			}

			var note *string
			if c.IsSet("note") {
				value := c.String("note")
				note = &value
			}

			state, err := transition(ctx, deps.DB.Service().Ledger(), id, actor, note)
			if err != nil {
				return err
			}

			deps.Logger.Info("Updated ledger entry",
				zap.String("id", id.String()),
				zap.String("actor", actor.String()),
				zap.String("state", state.String()))

			return nil
		},
	}
}

func voidSting(
	ctx context.Context, ledger *service.LedgerService, id uuid.UUID, actor types.Target, note *string,
) (enum.LedgerState, error) {
	sting, err := ledger.VoidSting(ctx, id, actor, note)
	if err != nil {
		return 0, err
	}

	return sting.State, nil
}

func handleSting(
	ctx context.Context, ledger *service.LedgerService, id uuid.UUID, actor types.Target, note *string,
) (enum.LedgerState, error) {
	sting, err := ledger.HandleSting(ctx, id, actor, note)
	if err != nil {
		return 0, err
	}

	return sting.State, nil
}

func voidPunishment(
	ctx context.Context, ledger *service.LedgerService, id uuid.UUID, actor types.Target, note *string,
) (enum.LedgerState, error) {
	punishment, err := ledger.VoidPunishment(ctx, id, actor, note)
	if err != nil {
		return 0, err
	}

	return punishment.State, nil
}

func handlePunishment(
	ctx context.Context, ledger *service.LedgerService, id uuid.UUID, actor types.Target, note *string,
) (enum.LedgerState, error) {
	punishment, err := ledger.HandlePunishment(ctx, id, actor, note)
	if err != nil {
		return 0, err
	}

	return punishment.State, nil
}

// ParseActor accepts "system", "user:<id>" or a bare Discord user ID.
func ParseActor(raw string) (types.Target, error) {
	if target, err := types.ParseTarget(raw); err == nil {
		return target, nil
	}

	id, err := snowflake.Parse(raw)
	if err != nil {
		return types.Target{}, fmt.Errorf("%w: %q", ErrInvalidActor, raw)
	}

	return types.UserTarget(id), nil
}
