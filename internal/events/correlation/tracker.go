// Package correlation matches moderation start events with their optional end events.
package correlation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/robalyx/antiraid/pkg/utils"
	"go.uber.org/zap"
)

// ErrDuplicateCorrelationID indicates that a start event reused the ID of a pending action.
var ErrDuplicateCorrelationID = errors.New("correlation id is already pending")

// DefaultTimeout is how long a start event waits for its end event.
const DefaultTimeout = 15 * time.Minute

// Pending is a moderation action whose end event has not been seen yet.
type Pending struct {
	GuildID   snowflake.ID
	Start     events.ModerationStart
	StartedAt time.Time
}

// CompleteFunc is called when an end event matches a pending start event.
type CompleteFunc func(ctx context.Context, pending Pending, end events.ModerationEnd)

// ExpireFunc is called when no end event arrived before the timeout.
// This is a normal outcome and not an error.
type ExpireFunc func(pending Pending)

// Option configures a Tracker.
type Option func(*Tracker)

// WithOnComplete sets the completion callback.
func WithOnComplete(fn CompleteFunc) Option {
	return func(t *Tracker) {
		t.onComplete = fn
	}
}

// WithOnExpire sets the expiry callback.
func WithOnExpire(fn ExpireFunc) Option {
	return func(t *Tracker) {
		t.onExpire = fn
	}
}

// WithSweepInterval sets how often expired entries are checked.
func WithSweepInterval(interval time.Duration) Option {
	return func(t *Tracker) {
		t.sweepInterval = interval
	}
}

// Tracker keeps the pending table of moderation actions keyed by correlation ID.
type Tracker struct {
	pending       *utils.TTLMap[uuid.UUID, Pending]
	onComplete    CompleteFunc
	onExpire      ExpireFunc
	sweepInterval time.Duration
	logger        *zap.Logger
}

// New creates a tracker whose entries expire after timeout.
func New(logger *zap.Logger, timeout time.Duration, opts ...Option) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	t := &Tracker{
		sweepInterval: timeout / 4,
		logger:        logger.Named("correlation"),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.sweepInterval <= 0 {
		t.sweepInterval = timeout
	}

	t.pending = utils.NewTTLMapWithEvict(timeout, t.sweepInterval, t.expire)

	return t
}

// Track records a start event as pending.
func (t *Tracker) Track(guildID snowflake.ID, start events.ModerationStart) error {
	pending := Pending{
		GuildID:   guildID,
		Start:     start,
		StartedAt: time.Now(),
	}

	if !t.pending.SetIfAbsent(start.CorrelationID, pending) {
		return fmt.Errorf("%w: %s", ErrDuplicateCorrelationID, start.CorrelationID)
	}

	t.logger.Debug("Tracking moderation action",
		zap.String("correlation_id", start.CorrelationID.String()),
		zap.String("action", ActionName(start.Action)),
		zap.Uint64("guild_id", uint64(guildID)))

	return nil
}

// Resolve removes and returns the pending start event matching end.
// The second result is false when no start event is pending for it.
func (t *Tracker) Resolve(end events.ModerationEnd) (Pending, bool) {
	return t.pending.Take(end.CorrelationID)
}

// IsPending reports whether a correlation ID is waiting for its end event.
func (t *Tracker) IsPending(id uuid.UUID) bool {
	_, ok := t.pending.Get(id)
	return ok
}

// Len returns the number of pending actions.
func (t *Tracker) Len() int {
	return t.pending.Len()
}

// Handle is a bus handler that tracks start events and resolves end events.
// End events without a pending start are ignored.
func (t *Tracker) Handle(ctx context.Context, guildID snowflake.ID, ev events.Event) error {
	switch ev := ev.(type) {
	case events.ModerationStart:
		return t.Track(guildID, ev)
	case events.ModerationEnd:
		pending, ok := t.Resolve(ev)
		if !ok {
			t.logger.Debug("Ignoring end event without pending start",
				zap.String("correlation_id", ev.CorrelationID.String()))
			return nil
		}

		t.logger.Debug("Moderation action completed",
			zap.String("correlation_id", ev.CorrelationID.String()),
			zap.Duration("elapsed", time.Since(pending.StartedAt)))

		if t.onComplete != nil {
			t.onComplete(ctx, pending, ev)
		}
	}

	return nil
}

// Close stops expiring entries.
func (t *Tracker) Close() {
	t.pending.Close()
}

func (t *Tracker) expire(id uuid.UUID, pending Pending) {
	t.logger.Debug("Moderation action ended without completion",
		zap.String("correlation_id", id.String()),
		zap.Uint64("guild_id", uint64(pending.GuildID)))

	if t.onExpire != nil {
		t.onExpire(pending)
	}
}

// ActionName returns the name of action, or "none" for a start event without one.
func ActionName(action events.ModerationAction) string {
	if action == nil {
		return "none"
	}

	return action.ActionName()
}
