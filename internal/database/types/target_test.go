package types_test

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget_RoundTrip(t *testing.T) {
	t.Parallel()

	targets := []types.Target{
		types.SystemTarget(),
		types.UserTarget(0),
		types.UserTarget(1),
		types.UserTarget(80351110224678912),
		types.UserTarget(snowflake.ID(^uint64(0))),
	}

	for _, target := range targets {
		t.Run(target.String(), func(t *testing.T) {
			t.Parallel()

			parsed, err := types.ParseTarget(target.String())
			require.NoError(t, err)
			assert.Equal(t, target, parsed)
		})
	}
}

func TestTarget_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "system", types.SystemTarget().String())
	assert.Equal(t, "user:42", types.UserTarget(42).String())
}

func TestTarget_UserID(t *testing.T) {
	t.Parallel()

	id, ok := types.UserTarget(42).UserID()
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(42), id)
	assert.False(t, types.UserTarget(42).IsSystem())

	_, ok = types.SystemTarget().UserID()
	assert.False(t, ok)
	assert.True(t, types.SystemTarget().IsSystem())
}

func TestParseTarget_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "unknown prefix", input: "admin", wantErr: types.ErrInvalidTargetFormat},
		{name: "empty", input: "", wantErr: types.ErrInvalidTargetFormat},
		{name: "uppercase system", input: "SYSTEM", wantErr: types.ErrInvalidTargetFormat},
		{name: "padded system", input: " system", wantErr: types.ErrInvalidTargetFormat},
		{name: "role prefix", input: "role:1", wantErr: types.ErrInvalidTargetFormat},
		{name: "non numeric id", input: "user:abc", wantErr: types.ErrInvalidUserID},
		{name: "empty id", input: "user:", wantErr: types.ErrInvalidUserID},
		{name: "negative id", input: "user:-1", wantErr: types.ErrInvalidUserID},
		{name: "overflow id", input: "user:18446744073709551616", wantErr: types.ErrInvalidUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := types.ParseTarget(tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.input)
		})
	}
}

func TestTarget_Scan(t *testing.T) {
	t.Parallel()

	var target types.Target
	require.NoError(t, target.Scan("user:7"))
	assert.Equal(t, types.UserTarget(7), target)

	require.NoError(t, target.Scan([]byte("system")))
	assert.Equal(t, types.SystemTarget(), target)

	require.ErrorIs(t, target.Scan(7), types.ErrInvalidTargetFormat)

	value, err := types.UserTarget(7).Value()
	require.NoError(t, err)
	assert.Equal(t, "user:7", value)
}

func TestTarget_Text(t *testing.T) {
	t.Parallel()

	text, err := types.UserTarget(9).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "user:9", string(text))

	var target types.Target
	require.NoError(t, target.UnmarshalText([]byte("system")))
	assert.True(t, target.IsSystem())

	require.ErrorIs(t, target.UnmarshalText([]byte("bot:1")), types.ErrInvalidTargetFormat)
}
