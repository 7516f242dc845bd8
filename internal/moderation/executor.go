package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/robalyx/antiraid/pkg/utils"
	"go.uber.org/zap"
)

// ErrUnsupportedAction indicates an action the executor cannot perform.
var ErrUnsupportedAction = errors.New("moderation action is not supported")

// maxPruneDays is the largest message deletion window Discord accepts for bans.
const maxPruneDays = 7

// DiscordREST is the subset of the Discord REST API used to apply actions.
type DiscordREST interface {
	RemoveMember(guildID, userID snowflake.ID, opts ...rest.RequestOpt) error
	AddBan(guildID, userID snowflake.ID, deleteMessageDuration time.Duration, opts ...rest.RequestOpt) error
	DeleteBan(guildID, userID snowflake.ID, opts ...rest.RequestOpt) error
	UpdateMember(
		guildID, userID snowflake.ID, memberUpdate discord.MemberUpdate, opts ...rest.RequestOpt,
	) (*discord.Member, error)
}

// RestExecutor applies moderation actions through the Discord REST API.
type RestExecutor struct {
	rest   DiscordREST
	now    func() time.Time
	retry  utils.RetryOptions
	logger *zap.Logger
}

// ExecutorOption configures a RestExecutor.
type ExecutorOption func(*RestExecutor)

// WithExecutorClock overrides the clock used to compute timeout deadlines.
func WithExecutorClock(fn func() time.Time) ExecutorOption {
	return func(e *RestExecutor) {
		e.now = fn
	}
}

// WithRetryOptions overrides the retry policy for REST calls.
func WithRetryOptions(opts utils.RetryOptions) ExecutorOption {
	return func(e *RestExecutor) {
		e.retry = opts
	}
}

// NewRestExecutor creates an executor backed by the given REST client.
func NewRestExecutor(client DiscordREST, logger *zap.Logger, opts ...ExecutorOption) *RestExecutor {
	e := &RestExecutor{
		rest:   client,
		now:    time.Now,
		retry:  utils.GetDiscordRetryOptions(),
		logger: logger.Named("rest_executor"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute applies the action in the guild. Discord client errors are not retried.
func (e *RestExecutor) Execute(
	ctx context.Context, guildID snowflake.ID, action events.ModerationAction, reason *string,
) error {
	var opts []rest.RequestOpt
	if reason != nil && *reason != "" {
		opts = append(opts, rest.WithReason(*reason))
	}

	_, err := utils.WithRetry(ctx, func() (struct{}, error) {
		err := e.apply(guildID, action, opts)

		var restErr *rest.Error
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode < 500 {
			return struct{}{}, utils.Permanent(err)
		}

		if errors.Is(err, ErrUnsupportedAction) {
			return struct{}{}, utils.Permanent(err)
		}

		return struct{}{}, err
	}, e.retry)
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w", action.ActionName(), err)
	}

	e.logger.Info("Executed moderation action",
		zap.String("action", action.ActionName()),
		zap.Uint64("guild_id", uint64(guildID)),
		zap.Uint64("target_id", uint64(action.TargetID())))

	return nil
}

func (e *RestExecutor) apply(guildID snowflake.ID, action events.ModerationAction, opts []rest.RequestOpt) error {
	switch a := action.(type) {
	case events.KickAction:
		return e.rest.RemoveMember(guildID, a.Member.User.ID, opts...)
	case events.BanAction:
		return e.rest.AddBan(guildID, a.User.ID, pruneWindow(a.PruneDMD), opts...)
	case events.TempBanAction:
		return e.rest.AddBan(guildID, a.User.ID, pruneWindow(a.PruneDMD), opts...)
	case events.UnbanAction:
		return e.rest.DeleteBan(guildID, a.User.ID, opts...)
	case events.TimeoutAction:
		until := e.now().Add(a.Duration())
		_, err := e.rest.UpdateMember(guildID, a.Member.User.ID, discord.MemberUpdate{
			CommunicationDisabledUntil: json.NewNullablePtr(until),
		}, opts...)

		return err
	case events.PruneAction:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, a.ActionName())
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedAction, action)
	}
}

func pruneWindow(days uint8) time.Duration {
	return time.Duration(min(days, maxPruneDays)) * 24 * time.Hour
}
