// Package redisbus carries event envelopes between services over Redis pub/sub.
package redisbus

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/robalyx/antiraid/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	// DefaultChannel is the pub/sub channel used when none is configured.
	DefaultChannel = "antiraid:events"

	// resubscribeDelay is the pause before subscribing again after a lost connection.
	resubscribeDelay = 2 * time.Second

	// shardBufferSize is the number of decoded events queued per worker.
	shardBufferSize = 64
)

// Publisher publishes events as envelopes on a Redis channel.
type Publisher struct {
	client  rueidis.Client
	channel string
	retry   utils.RetryOptions
	now     func() time.Time
	logger  *zap.Logger
}

// NewPublisher creates a publisher that retries failed publishes up to maxRetries times.
func NewPublisher(client rueidis.Client, channel string, maxRetries uint64, logger *zap.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}

	return &Publisher{
		client:  client,
		channel: channel,
		retry:   utils.GetPublishRetryOptions(maxRetries),
		now:     time.Now,
		logger:  logger.Named("event_publisher"),
	}
}

// Publish wraps the event in an envelope and publishes it.
func (p *Publisher) Publish(ctx context.Context, guildID snowflake.ID, ev events.Event) error {
	envelope, err := events.NewEnvelope(guildID, ev, p.now())
	if err != nil {
		return err
	}

	return p.PublishEnvelope(ctx, envelope)
}

// PublishEnvelope publishes an already built envelope.
func (p *Publisher) PublishEnvelope(ctx context.Context, envelope *events.Envelope) error {
	data, err := envelope.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	receivers, err := utils.WithRetry(ctx, func() (int64, error) {
		cmd := p.client.B().Publish().Channel(p.channel).Message(rueidis.BinaryString(data)).Build()
		return p.client.Do(ctx, cmd).AsInt64()
	}, p.retry)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", envelope.Name, err)
	}

	p.logger.Debug("Published event",
		zap.String("event", envelope.Name),
		zap.String("envelope_id", envelope.ID.String()),
		zap.Int64("receivers", receivers))

	return nil
}

// Subscriber receives envelopes from a Redis channel and hands the decoded
// events to a local publisher, usually the in-process bus.
type Subscriber struct {
	client         rueidis.Client
	channel        string
	target         events.Publisher
	maxConcurrency int
	logger         *zap.Logger
}

// NewSubscriber creates a subscriber forwarding events to target.
func NewSubscriber(
	client rueidis.Client, channel string, target events.Publisher, maxConcurrency int, logger *zap.Logger,
) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}

	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	return &Subscriber{
		client:         client,
		channel:        channel,
		target:         target,
		maxConcurrency: maxConcurrency,
		logger:         logger.Named("event_subscriber"),
	}
}

// delivery is a decoded event waiting for its shard worker.
type delivery struct {
	envelope *events.Envelope
	event    events.Event
}

// Run subscribes to the channel until the context is cancelled.
// A lost subscription is re-established after a short pause.
//
// Events are handed to one of maxConcurrency workers chosen by guild ID. Each
// worker handles its events one at a time, so events of a guild reach the
// target in the order they were published.
func (s *Subscriber) Run(ctx context.Context) error {
	shards := make([]chan delivery, s.maxConcurrency)
	p := pool.New()

	for i := range shards {
		shard := make(chan delivery, shardBufferSize)
		shards[i] = shard

		p.Go(func() {
			for d := range shard {
				s.dispatch(ctx, d)
			}
		})
	}

	defer func() {
		for _, shard := range shards {
			close(shard)
		}
		p.Wait()
	}()

	s.logger.Info("Subscribing to events",
		zap.String("channel", s.channel),
		zap.Int("workers", len(shards)))

	for {
		err := s.client.Receive(ctx, s.client.B().Subscribe().Channel(s.channel).Build(),
			func(msg rueidis.PubSubMessage) {
				d, ok := s.decode(msg.Message)
				if !ok {
					return
				}

				shard := shards[uint64(d.envelope.GuildID)%uint64(len(shards))]

				select {
				case shard <- d:
				case <-ctx.Done():
				}
			})

		if utils.ContextGuard(ctx) {
			s.logger.Info("Event subscriber stopped")
			return nil
		}

		s.logger.Error("Event subscription lost", zap.Error(err))

		if !utils.ErrorSleep(ctx, resubscribeDelay, s.logger, "event subscriber") {
			return nil
		}
	}
}

func (s *Subscriber) decode(message string) (delivery, bool) {
	envelope, err := events.UnmarshalEnvelope([]byte(message))
	if err != nil {
		s.logger.Warn("Dropping malformed envelope", zap.Error(err))
		return delivery{}, false
	}

	ev, err := envelope.Decode()
	if err != nil {
		s.logger.Warn("Dropping undecodable event",
			zap.String("event", envelope.Name),
			zap.String("envelope_id", envelope.ID.String()),
			zap.Error(err))
		return delivery{}, false
	}

	return delivery{envelope: envelope, event: ev}, true
}

func (s *Subscriber) dispatch(ctx context.Context, d delivery) {
	if err := s.target.Publish(ctx, d.envelope.GuildID, d.event); err != nil {
		s.logger.Error("Failed to handle event",
			zap.String("event", d.envelope.Name),
			zap.String("envelope_id", d.envelope.ID.String()),
			zap.Error(err))
	}
}
