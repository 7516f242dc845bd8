// Package relay runs the event relay: it receives events from the Redis
// transport, links moderation start and end events and expires stings.
package relay

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/robalyx/antiraid/internal/events/bus"
	"github.com/robalyx/antiraid/internal/events/correlation"
	"github.com/robalyx/antiraid/internal/events/redisbus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds the relay settings.
type Config struct {
	Channel             string
	InstanceID          string
	CorrelationTimeout  time.Duration
	ExpirySweepInterval time.Duration // Zero or negative disables the sweeper
	ExpiryBatchSize     int
	MaxConcurrency      int
}

// Stats counts the outcomes of tracked moderation actions.
type Stats struct {
	Received  int64
	Completed int64
	Expired   int64
	Pending   int
}

// Relay connects the Redis transport to the local bus and its handlers.
type Relay struct {
	bus        *bus.Bus
	tracker    *correlation.Tracker
	subscriber *redisbus.Subscriber
	sweeper    *Sweeper
	received   atomic.Int64
	completed  atomic.Int64
	expired    atomic.Int64
	logger     *zap.Logger
}

// New creates a relay. The sweeper is only created when an expirer and a lock client are given.
func New(cfg *Config, eventClient, lock rueidis.Client, expirer Expirer, logger *zap.Logger) *Relay {
	r := &Relay{
		bus:    bus.New(logger, cfg.MaxConcurrency),
		logger: logger.Named("relay"),
	}

	r.tracker = correlation.New(logger, cfg.CorrelationTimeout,
		correlation.WithOnComplete(r.onComplete),
		correlation.WithOnExpire(r.onExpire))

	r.bus.Subscribe("audit", r.audit)
	r.bus.Subscribe("correlation", r.tracker.Handle, events.NameModerationStart, events.NameModerationEnd)

	r.subscriber = redisbus.NewSubscriber(eventClient, cfg.Channel, r.bus, cfg.MaxConcurrency, logger)

	if expirer != nil && lock != nil && cfg.ExpirySweepInterval > 0 {
		r.sweeper = NewSweeper(expirer, lock, cfg.InstanceID, cfg.ExpirySweepInterval, cfg.ExpiryBatchSize, logger)
	}

	return r
}

// Bus returns the local bus so callers can add handlers.
func (r *Relay) Bus() *bus.Bus {
	return r.bus
}

// Run runs the subscriber and the sweeper until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	defer r.tracker.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.subscriber.Run(ctx)
	})

	if r.sweeper != nil {
		g.Go(func() error {
			return r.sweeper.Run(ctx)
		})
	} else {
		r.logger.Info("Expiry sweeper disabled")
	}

	err := g.Wait()

	stats := r.Stats()
	r.logger.Info("Relay stopped",
		zap.Int64("received", stats.Received),
		zap.Int64("completed", stats.Completed),
		zap.Int64("expired", stats.Expired),
		zap.Int("pending", stats.Pending))

	return err
}

// Stats returns the current counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Completed: r.completed.Load(),
		Expired:   r.expired.Load(),
		Pending:   r.tracker.Len(),
	}
}

func (r *Relay) audit(_ context.Context, guildID snowflake.ID, ev events.Event) error {
	r.received.Add(1)

	fields := []zap.Field{
		zap.String("event", ev.Name()),
		zap.Uint64("guild_id", uint64(guildID)),
	}

	if author, ok := ev.Author(); ok {
		fields = append(fields, zap.String("author", author))
	}

	r.logger.Debug("Received event", fields...)

	return nil
}

func (r *Relay) onComplete(_ context.Context, pending correlation.Pending, _ events.ModerationEnd) {
	r.completed.Add(1)

	r.logger.Info("Moderation action finished",
		zap.String("correlation_id", pending.Start.CorrelationID.String()),
		zap.String("action", correlation.ActionName(pending.Start.Action)),
		zap.Uint64("guild_id", uint64(pending.GuildID)),
		zap.Duration("elapsed", time.Since(pending.StartedAt)))
}

func (r *Relay) onExpire(pending correlation.Pending) {
	r.expired.Add(1)

	r.logger.Warn("Moderation action never completed",
		zap.String("correlation_id", pending.Start.CorrelationID.String()),
		zap.String("action", correlation.ActionName(pending.Start.Action)),
		zap.Uint64("guild_id", uint64(pending.GuildID)))
}
