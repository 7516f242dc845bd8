package commands

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/robalyx/antiraid/internal/events/redisbus"
	"github.com/robalyx/antiraid/internal/moderation"
	"github.com/robalyx/antiraid/internal/setup"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

// actionBuilder turns the parsed flags into a moderation action.
type actionBuilder func(target discord.User, c *cli.Command) (events.ModerationAction, error)

// actionBuilders maps each moderation subcommand to its action builder.
var actionBuilders = map[string]actionBuilder{
	"kick":    buildKick,
	"ban":     buildBan,
	"tempban": buildTempBan,
	"unban":   buildUnban,
	"timeout": buildTimeout,
}

// ModerateCommand applies moderation actions through the dispatcher.
func ModerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "moderate",
		Usage: "Apply a moderation action and record it in the ledger",
		Commands: []*cli.Command{
			moderateCommand("kick", "Kick a member", nil),
			moderateCommand("ban", "Ban a user", []cli.Flag{pruneFlag()}),
			moderateCommand("tempban", "Ban a user for a limited time", []cli.Flag{pruneFlag(), durationFlag()}),
			moderateCommand("unban", "Lift a ban", nil),
			moderateCommand("timeout", "Time out a member", []cli.Flag{durationFlag()}),
		},
	}
}

func buildKick(target discord.User, _ *cli.Command) (events.ModerationAction, error) {
	return events.KickAction{Member: discord.Member{User: target}}, nil
}

func buildBan(target discord.User, c *cli.Command) (events.ModerationAction, error) {
	days, err := pruneDays(c)
	if err != nil {
		return nil, err
	}

	return events.BanAction{User: target, PruneDMD: days}, nil
}

func buildTempBan(target discord.User, c *cli.Command) (events.ModerationAction, error) {
	days, err := pruneDays(c)
	if err != nil {
		return nil, err
	}

	secs, err := durationSecs(c)
	if err != nil {
		return nil, err
	}

	return events.TempBanAction{User: target, DurationSecs: secs, PruneDMD: days}, nil
}

func buildUnban(target discord.User, _ *cli.Command) (events.ModerationAction, error) {
	return events.UnbanAction{User: target}, nil
}

func buildTimeout(target discord.User, c *cli.Command) (events.ModerationAction, error) {
	secs, err := durationSecs(c)
	if err != nil {
		return nil, err
	}

	return events.TimeoutAction{Member: discord.Member{User: target}, DurationSecs: secs}, nil
}

func moderateCommand(name, usage string, extra []cli.Flag) *cli.Command {
	build := actionBuilders[name]

	flags := []cli.Flag{
		guildFlag(),
		&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Target user ID", Required: true},
		&cli.StringFlag{Name: "moderator", Aliases: []string{"m"}, Usage: "Moderator user ID", Required: true},
		&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Reason shown in the audit log"},
		&cli.IntFlag{Name: "stings", Aliases: []string{"s"}, Usage: "Stings given to the target"},
		&cli.StringFlag{Name: "src", Usage: "Source tag recorded on ledger entries", Value: "cli"},
	}

	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: append(flags, extra...),
		Action: func(ctx context.Context, c *cli.Command) error {
			req, err := buildRequest(c, build)
			if err != nil {
				return err
			}

			return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
				if app.Discord == nil {
					return ErrDiscordDisabled
				}

				bus := app.Config.Common.Events
				dispatcher := moderation.NewDispatcher(
					redisbus.NewPublisher(app.EventClient, bus.Channel, bus.PublishRetries, app.Logger),
					moderation.NewRestExecutor(app.Discord, app.Logger),
					app.DB.Service().Ledger(),
					app.Logger,
				)

				result, err := dispatcher.Dispatch(ctx, req)
				if err != nil {
					return err
				}

				fmt.Fprintf(c.Root().Writer, "Applied %s to %s (correlation %s)\n",
					name, req.Action.TargetID(), result.CorrelationID)

				return nil
			})
		},
	}
}

// buildRequest validates the shared flags and builds the dispatch request.
func buildRequest(c *cli.Command, build actionBuilder) (*moderation.Request, error) {
	guildID, err := parseID(c, "guild")
	if err != nil {
		return nil, err
	}

	userID, err := parseID(c, "user")
	if err != nil {
		return nil, err
	}

	moderatorID, err := parseID(c, "moderator")
	if err != nil {
		return nil, err
	}

	stings := c.Int("stings")
	if stings < 0 {
		return nil, ErrNegativeStingsArg
	}

	action, err := build(discord.User{ID: userID}, c)
	if err != nil {
		return nil, err
	}

	req := &moderation.Request{
		GuildID:   guildID,
		Action:    action,
		Moderator: discord.Member{User: discord.User{ID: moderatorID}},
		Stings:    int32(stings), //nolint:gosec // bounded by the ledger column
	}

	if c.IsSet("reason") {
		reason := c.String("reason")
		req.Reason = &reason
	}

	if src := c.String("src"); src != "" {
		req.Src = &src
	}

	return req, nil
}

func pruneFlag() cli.Flag {
	return &cli.IntFlag{Name: "prune-days", Usage: "Days of messages to delete (0-7)"}
}

func durationFlag() cli.Flag {
	return &cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "How long the action lasts", Required: true}
}

func pruneDays(c *cli.Command) (uint8, error) {
	days := c.Int("prune-days")
	if days < 0 || days > 7 {
		return 0, ErrInvalidPruneDays
	}

	return uint8(days), nil
}

func durationSecs(c *cli.Command) (uint64, error) {
	duration := c.Duration("duration")
	if duration.Seconds() < 1 {
		return 0, ErrDurationRequired
	}

	return uint64(duration.Seconds()), nil
}
