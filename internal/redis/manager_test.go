package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/robalyx/antiraid/internal/redis"
	"github.com/robalyx/antiraid/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_GetClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{
		Host:         mr.Host(),
		Port:         port,
		DisableCache: true,
	}, zap.NewNop())
	defer manager.Close()

	first, err := manager.GetClient(redis.LockDBIndex)
	require.NoError(t, err)

	second, err := manager.GetClient(redis.LockDBIndex)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, manager.Ping(t.Context(), redis.EventsDBIndex))

	// Keys written through a client land in the selected database
	require.NoError(t, first.Do(t.Context(), first.B().Set().Key("k").Value("v").Build()).Error())

	mr.Select(redis.LockDBIndex)
	value, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	manager.Close()
	manager.Close()
}
