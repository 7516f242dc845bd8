package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestStingCreate_ToSting(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*60*60))
	duration := 24 * time.Hour

	req := &types.StingCreate{
		Src:       ptr("automod"),
		Stings:    3,
		Reason:    ptr("spam"),
		GuildID:   snowflake.ID(100),
		Creator:   types.SystemTarget(),
		Target:    types.UserTarget(200),
		Duration:  &duration,
		StingData: json.RawMessage(`{"channel":"1"}`),
	}

	sting := req.ToSting(id, createdAt)

	assert.Equal(t, id, sting.ID)
	assert.Equal(t, "automod", *sting.Src)
	assert.Equal(t, int32(3), sting.Stings)
	assert.Equal(t, "spam", *sting.Reason)
	assert.Nil(t, sting.VoidReason)
	assert.Equal(t, snowflake.ID(100), sting.GuildID)
	assert.Equal(t, types.SystemTarget(), sting.Creator)
	assert.Equal(t, types.UserTarget(200), sting.Target)
	assert.Equal(t, enum.LedgerStateActive, sting.State)
	assert.Equal(t, time.UTC, sting.CreatedAt.Location())
	assert.True(t, createdAt.Equal(sting.CreatedAt))
	assert.Equal(t, &duration, sting.Duration)
	require.NotNil(t, sting.ExpiresAt)
	assert.True(t, createdAt.Add(duration).Equal(*sting.ExpiresAt))
	assert.JSONEq(t, `{"channel":"1"}`, string(sting.StingData))
	assert.Equal(t, "null", string(sting.HandleLog))
}

func TestStingCreate_ToStingNoValidation(t *testing.T) {
	t.Parallel()

	req := &types.StingCreate{Stings: -5, Reason: ptr("")}
	sting := req.ToSting(uuid.Nil, time.Unix(0, 0))

	assert.Equal(t, int32(-5), sting.Stings)
	assert.Empty(t, *sting.Reason)
}

func TestSting_Expiry(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	duration := time.Hour

	permanent := &types.Sting{CreatedAt: createdAt}
	assert.Nil(t, permanent.Expiry())
	assert.False(t, permanent.IsExpired(createdAt.Add(1000*time.Hour)))

	temporary := &types.Sting{CreatedAt: createdAt, Duration: &duration}
	require.NotNil(t, temporary.Expiry())
	assert.Equal(t, createdAt.Add(time.Hour), *temporary.Expiry())
	assert.False(t, temporary.IsExpired(createdAt.Add(59*time.Minute)))
	assert.True(t, temporary.IsExpired(createdAt.Add(time.Hour)))
}

func TestTotalStings(t *testing.T) {
	t.Parallel()

	rows := []types.StingAggregate{
		{Target: types.UserTarget(1), TotalStings: 5},
		{Target: types.UserTarget(2), TotalStings: 3},
		{Target: types.SystemTarget(), TotalStings: 2},
	}

	assert.Equal(t, int64(10), types.TotalStings(rows))
	assert.Equal(t, int64(0), types.TotalStings(nil))
}

func TestTotalStingsPerUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rows       []types.StingAggregate
		wantUsers  map[snowflake.ID]int64
		wantSystem int64
	}{
		{
			name: "system stings fold into every user",
			rows: []types.StingAggregate{
				{Target: types.UserTarget(1), TotalStings: 5},
				{Target: types.UserTarget(2), TotalStings: 3},
				{Target: types.SystemTarget(), TotalStings: 2},
			},
			wantUsers:  map[snowflake.ID]int64{1: 7, 2: 5},
			wantSystem: 2,
		},
		{
			name: "multiple system rows are added once as a sum",
			rows: []types.StingAggregate{
				{Src: ptr("a"), Target: types.SystemTarget(), TotalStings: 1},
				{Src: ptr("a"), Target: types.UserTarget(1), TotalStings: 4},
				{Src: ptr("b"), Target: types.UserTarget(1), TotalStings: 6},
				{Src: ptr("b"), Target: types.SystemTarget(), TotalStings: 2},
			},
			wantUsers:  map[snowflake.ID]int64{1: 13},
			wantSystem: 3,
		},
		{
			name: "only system rows yield no users",
			rows: []types.StingAggregate{
				{Target: types.SystemTarget(), TotalStings: 9},
			},
			wantUsers:  map[snowflake.ID]int64{},
			wantSystem: 9,
		},
		{
			name:       "empty input",
			rows:       nil,
			wantUsers:  map[snowflake.ID]int64{},
			wantSystem: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users, system := types.TotalStingsPerUser(tt.rows)
			assert.Equal(t, tt.wantUsers, users)
			assert.Equal(t, tt.wantSystem, system)

			_, hasAbsent := users[3]
			assert.False(t, hasAbsent)
		})
	}
}

func TestTotalStingsPerUser_OrderIndependent(t *testing.T) {
	t.Parallel()

	rows := []types.StingAggregate{
		{Target: types.SystemTarget(), TotalStings: 2},
		{Target: types.UserTarget(2), TotalStings: 3},
		{Target: types.UserTarget(1), TotalStings: 5},
	}
	reversed := []types.StingAggregate{rows[2], rows[1], rows[0]}

	usersA, systemA := types.TotalStingsPerUser(rows)
	usersB, systemB := types.TotalStingsPerUser(reversed)

	assert.Equal(t, usersA, usersB)
	assert.Equal(t, systemA, systemB)
}
