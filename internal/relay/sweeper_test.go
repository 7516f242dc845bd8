package relay_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/antiraid/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls     atomic.Int64
	batchSize atomic.Int64
	err       error
}

func (e *countingExpirer) ExpireStings(_ context.Context, batchSize int) (int, error) {
	e.calls.Add(1)
	e.batchSize.Store(int64(batchSize))

	return 2, e.err
}

func newClient(t *testing.T, mr *miniredis.Miniredis) rueidis.Client {
	t.Helper()

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestSweeper_SingleHolderPerInterval(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	expirer := &countingExpirer{}

	first := relay.NewSweeper(expirer, newClient(t, mr), "instance-a", time.Minute, 50, zap.NewNop())
	second := relay.NewSweeper(expirer, newClient(t, mr), "instance-b", time.Minute, 50, zap.NewNop())

	count, err := first.Sweep(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = second.Sweep(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Equal(t, int64(1), expirer.calls.Load())
	assert.Equal(t, int64(50), expirer.batchSize.Load())

	holder, err := mr.Get(relay.ExpiryLockKey)
	require.NoError(t, err)
	assert.Equal(t, "instance-a", holder)

	// The lock lapses with the interval
	mr.FastForward(time.Minute)

	count, err = second.Sweep(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(2), expirer.calls.Load())
}

func TestSweeper_ExpirerError(t *testing.T) {
	t.Parallel()

	errStorage := errors.New("storage unavailable")
	expirer := &countingExpirer{err: errStorage}

	sweeper := relay.NewSweeper(expirer, newClient(t, miniredis.RunT(t)), "instance-a", time.Minute, 10, zap.NewNop())

	_, err := sweeper.Sweep(t.Context())
	require.ErrorIs(t, err, errStorage)
}

func TestSweeper_LockUnavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := newClient(t, mr)
	expirer := &countingExpirer{}

	mr.Close()

	_, err := relay.NewSweeper(expirer, client, "instance-a", time.Minute, 10, zap.NewNop()).Sweep(t.Context())
	require.Error(t, err)
	assert.Zero(t, expirer.calls.Load())
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	expirer := &countingExpirer{}
	sweeper := relay.NewSweeper(expirer, newClient(t, mr), "instance-a", 10*time.Millisecond, 10, zap.NewNop())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- sweeper.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return expirer.calls.Load() > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
