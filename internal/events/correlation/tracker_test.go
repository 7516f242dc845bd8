package correlation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/robalyx/antiraid/internal/events/bus"
	"github.com/robalyx/antiraid/internal/events/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStart() events.ModerationStart {
	moderator := discord.Member{User: discord.User{ID: 1}}
	return events.NewModerationStart(events.BanAction{User: discord.User{ID: 2}}, moderator, 1, nil)
}

func TestTracker_LinksMatchingEnd(t *testing.T) {
	t.Parallel()

	var (
		mu        sync.Mutex
		completed []correlation.Pending
	)

	tracker := correlation.New(zap.NewNop(), time.Minute,
		correlation.WithOnComplete(func(_ context.Context, p correlation.Pending, end events.ModerationEnd) {
			mu.Lock()
			defer mu.Unlock()

			assert.True(t, end.Ends(p.Start))
			completed = append(completed, p)
		}),
	)
	t.Cleanup(tracker.Close)

	start := newStart()
	other := newStart()

	require.NoError(t, tracker.Handle(t.Context(), 5, start))
	require.NoError(t, tracker.Handle(t.Context(), 5, other))
	assert.Equal(t, 2, tracker.Len())

	require.NoError(t, tracker.Handle(t.Context(), 5, start.End()))

	require.Len(t, completed, 1)
	assert.Equal(t, start.CorrelationID, completed[0].Start.CorrelationID)
	assert.Equal(t, snowflake.ID(5), completed[0].GuildID)

	assert.False(t, tracker.IsPending(start.CorrelationID))
	assert.True(t, tracker.IsPending(other.CorrelationID))

	// A second end for the same action is not linked again
	require.NoError(t, tracker.Handle(t.Context(), 5, start.End()))
	assert.Len(t, completed, 1)
}

func TestTracker_IgnoresEndWithoutStart(t *testing.T) {
	t.Parallel()

	called := false
	tracker := correlation.New(zap.NewNop(), time.Minute,
		correlation.WithOnComplete(func(context.Context, correlation.Pending, events.ModerationEnd) {
			called = true
		}),
	)
	t.Cleanup(tracker.Close)

	require.NoError(t, tracker.Handle(t.Context(), 5, events.ModerationEnd{CorrelationID: uuid.New()}))
	assert.False(t, called)
	assert.Zero(t, tracker.Len())
}

func TestTracker_RejectsDuplicateCorrelationID(t *testing.T) {
	t.Parallel()

	tracker := correlation.New(zap.NewNop(), time.Minute)
	t.Cleanup(tracker.Close)

	start := newStart()
	require.NoError(t, tracker.Track(5, start))
	require.ErrorIs(t, tracker.Track(5, start), correlation.ErrDuplicateCorrelationID)

	_, ok := tracker.Resolve(start.End())
	require.True(t, ok)

	// The ID may be tracked again once the earlier action resolved
	require.NoError(t, tracker.Track(5, start))
}

func TestTracker_ExpiresMissingEnd(t *testing.T) {
	t.Parallel()

	expired := make(chan correlation.Pending, 1)
	tracker := correlation.New(zap.NewNop(), 20*time.Millisecond,
		correlation.WithSweepInterval(5*time.Millisecond),
		correlation.WithOnExpire(func(p correlation.Pending) {
			expired <- p
		}),
	)
	t.Cleanup(tracker.Close)

	start := newStart()
	require.NoError(t, tracker.Track(5, start))

	select {
	case p := <-expired:
		assert.Equal(t, start.CorrelationID, p.Start.CorrelationID)
	case <-time.After(2 * time.Second):
		t.Fatal("pending action did not expire")
	}

	// The late end event is silently ignored
	_, ok := tracker.Resolve(start.End())
	assert.False(t, ok)
	require.NoError(t, tracker.Handle(t.Context(), 5, start.End()))
}

func TestTracker_OnBus(t *testing.T) {
	t.Parallel()

	done := make(chan uuid.UUID, 1)
	tracker := correlation.New(zap.NewNop(), time.Minute,
		correlation.WithOnComplete(func(_ context.Context, p correlation.Pending, _ events.ModerationEnd) {
			done <- p.Start.CorrelationID
		}),
	)
	t.Cleanup(tracker.Close)

	b := bus.New(zap.NewNop(), 2)
	b.Subscribe("correlation", tracker.Handle, events.NameModerationStart, events.NameModerationEnd)

	start := newStart()
	require.NoError(t, b.Publish(t.Context(), 5, start))
	require.NoError(t, b.Publish(t.Context(), 5, events.GetSettings{AuthorID: 1}))
	require.NoError(t, b.Publish(t.Context(), 5, start.End()))

	assert.Equal(t, start.CorrelationID, <-done)
}
