// Package moderation carries out moderation actions and announces them on the event bus.
//
// Every action is announced with a ModerationStart event before it runs. The
// matching ModerationEnd event is published only once the action completed and
// its ledger entries were recorded. A failed action never produces an end event.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/events"
	"go.uber.org/zap"
)

// ErrMissingAction indicates a request without a moderation action.
var ErrMissingAction = errors.New("moderation request has no action")

// DefaultReason is recorded on punishments issued without a reason.
const DefaultReason = "No reason provided"

// Executor applies a moderation action.
type Executor interface {
	Execute(ctx context.Context, guildID snowflake.ID, action events.ModerationAction, reason *string) error
}

// Ledger records the outcome of a moderation action.
type Ledger interface {
	CreatePunishment(ctx context.Context, req *types.PunishmentCreate) (*types.Punishment, error)
	CreateSting(ctx context.Context, req *types.StingCreate) (*types.Sting, error)
}

// Request describes a moderation action to carry out.
type Request struct {
	GuildID   snowflake.ID
	Action    events.ModerationAction
	Moderator discord.Member
	Stings    int32   // Stings given to the target along with the action
	Reason    *string // Optional reason shown in the audit log
	Src       *string // Optional source tag for ledger entries
}

// Result is the outcome of a dispatched action.
type Result struct {
	CorrelationID uuid.UUID
	Punishment    *types.Punishment // Nil for actions that do not punish
	Sting         *types.Sting      // Nil when no stings were given
	EndPublished  bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCorrelationIDGenerator overrides the generator used for correlation IDs.
func WithCorrelationIDGenerator(fn func() uuid.UUID) DispatcherOption {
	return func(d *Dispatcher) {
		d.newID = fn
	}
}

// Dispatcher runs moderation actions with start and end notifications.
type Dispatcher struct {
	publisher events.Publisher
	executor  Executor
	ledger    Ledger
	newID     func() uuid.UUID
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	publisher events.Publisher, executor Executor, ledger Ledger, logger *zap.Logger, opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		executor:  executor,
		ledger:    ledger,
		newID:     uuid.New,
		logger:    logger.Named("moderation"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch announces, executes and records a moderation action.
//
// When publishing the start event fails the action is not executed. When the
// action or its recording fails no end event is published. Failing to publish
// the end event is logged but does not fail the dispatch since end events are
// not guaranteed.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	if req.Action == nil {
		return nil, ErrMissingAction
	}

	start := events.ModerationStart{
		CorrelationID: d.newID(),
		Action:        req.Action,
		Moderator:     req.Moderator,
		NumStings:     req.Stings,
		Reason:        req.Reason,
	}

	logger := d.logger.With(
		zap.String("correlation_id", start.CorrelationID.String()),
		zap.String("action", req.Action.ActionName()),
		zap.Uint64("guild_id", uint64(req.GuildID)),
		zap.Uint64("target_id", uint64(req.Action.TargetID())))

	if err := d.publisher.Publish(ctx, req.GuildID, start); err != nil {
		return nil, fmt.Errorf("failed to publish moderation start: %w", err)
	}

	if err := d.executor.Execute(ctx, req.GuildID, req.Action, req.Reason); err != nil {
		logger.Error("Moderation action failed", zap.Error(err))
		return nil, err
	}

	result := &Result{CorrelationID: start.CorrelationID}

	if err := d.record(ctx, req, result); err != nil {
		logger.Error("Failed to record moderation action", zap.Error(err))
		return result, err
	}

	if err := d.publisher.Publish(ctx, req.GuildID, start.End()); err != nil {
		logger.Warn("Failed to publish moderation end", zap.Error(err))
		return result, nil
	}

	result.EndPublished = true
	logger.Info("Moderation action completed")

	return result, nil
}

// record stores the punishment and stings produced by the action.
func (d *Dispatcher) record(ctx context.Context, req *Request, result *Result) error {
	target := types.SystemTarget()
	if id := req.Action.TargetID(); id != 0 {
		target = types.UserTarget(id)
	}

	creator := types.UserTarget(req.Moderator.User.ID)

	if kind, duration, ok := punishmentFor(req.Action); ok {
		reason := DefaultReason
		if req.Reason != nil && *req.Reason != "" {
			reason = *req.Reason
		}

		punishment, err := d.ledger.CreatePunishment(ctx, &types.PunishmentCreate{
			Src:        req.Src,
			GuildID:    req.GuildID,
			Punishment: kind,
			Creator:    creator,
			Target:     target,
			Duration:   duration,
			Reason:     reason,
		})
		if err != nil {
			return fmt.Errorf("failed to record punishment: %w", err)
		}

		result.Punishment = punishment
	}

	if req.Stings > 0 {
		sting, err := d.ledger.CreateSting(ctx, &types.StingCreate{
			Src:     req.Src,
			Stings:  req.Stings,
			Reason:  req.Reason,
			GuildID: req.GuildID,
			Creator: creator,
			Target:  target,
		})
		if err != nil {
			return fmt.Errorf("failed to record stings: %w", err)
		}

		result.Sting = sting
	}

	return nil
}

// punishmentFor maps an action to the punishment it records.
// Unban and prune do not punish anyone.
func punishmentFor(action events.ModerationAction) (string, *time.Duration, bool) {
	switch a := action.(type) {
	case events.KickAction:
		return types.PunishmentKick, nil, true
	case events.BanAction:
		return types.PunishmentBan, nil, true
	case events.TempBanAction:
		duration := a.Duration()
		return types.PunishmentTempBan, &duration, true
	case events.TimeoutAction:
		duration := a.Duration()
		return types.PunishmentTimeout, &duration, true
	default:
		return "", nil, false
	}
}
