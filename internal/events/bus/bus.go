// Package bus delivers events to in-process handlers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ErrHandlerPanic indicates that a handler panicked while handling an event.
var ErrHandlerPanic = errors.New("event handler panicked")

// DefaultMaxConcurrency is the number of handlers run at once when none is configured.
const DefaultMaxConcurrency = 8

// HandlerFunc reacts to an event raised in a guild.
type HandlerFunc func(ctx context.Context, guildID snowflake.ID, ev events.Event) error

type subscription struct {
	id      uint64
	name    string
	kinds   []string
	handler HandlerFunc
}

func (s *subscription) accepts(name string) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, name)
}

// Bus fans events out to every matching subscriber.
// Subscribers run concurrently with no ordering between them.
type Bus struct {
	mu             sync.RWMutex
	subscriptions  []*subscription
	nextID         uint64
	maxConcurrency int
	logger         *zap.Logger
}

// New creates a bus that runs at most maxConcurrency handlers at once.
func New(logger *zap.Logger, maxConcurrency int) *Bus {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	return &Bus{
		maxConcurrency: maxConcurrency,
		logger:         logger.Named("event_bus"),
	}
}

// Subscribe registers a handler for the given event names, or for every event
// when no names are given. The returned function removes the subscription.
func (b *Bus) Subscribe(name string, handler HandlerFunc, kinds ...string) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{
		id:      b.nextID,
		name:    name,
		kinds:   slices.Clone(kinds),
		handler: handler,
	}
	b.subscriptions = append(b.subscriptions, sub)

	b.logger.Debug("Handler subscribed",
		zap.String("handler", name),
		zap.Strings("kinds", kinds))

	var once sync.Once

	return func() {
		once.Do(func() {
			b.unsubscribe(sub.id)
		})
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscriptions = slices.DeleteFunc(b.subscriptions, func(s *subscription) bool {
		return s.id == id
	})
}

// Len returns the number of subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscriptions)
}

// Publish runs every matching handler and waits for all of them to finish.
// Handler errors are joined together. A failing handler does not stop the others.
func (b *Bus) Publish(ctx context.Context, guildID snowflake.ID, ev events.Event) error {
	b.mu.RLock()
	matching := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.accepts(ev.Name()) {
			matching = append(matching, sub)
		}
	}
	b.mu.RUnlock()

	if len(matching) == 0 {
		return nil
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(b.maxConcurrency)

	for _, sub := range matching {
		p.Go(func(ctx context.Context) error {
			if err := b.run(ctx, sub, guildID, ev); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("handler", sub.name),
					zap.String("event", ev.Name()),
					zap.Uint64("guild_id", uint64(guildID)),
					zap.Error(err))

				return fmt.Errorf("handler %s: %w", sub.name, err)
			}

			return nil
		})
	}

	return p.Wait()
}

func (b *Bus) run(ctx context.Context, sub *subscription, guildID snowflake.ID, ev events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return sub.handler(ctx, guildID, ev)
}
