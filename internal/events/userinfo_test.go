package events_test

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"github.com/robalyx/antiraid/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  events.Permission
		text  string
	}{
		{"moderation.kick", events.Permission{Namespace: "moderation", Perm: "kick"}, "moderation.kick"},
		{"~moderation.kick", events.Permission{Namespace: "moderation", Perm: "kick", Negator: true}, "~moderation.kick"},
		{"moderation", events.Permission{Namespace: "moderation", Perm: "*"}, "moderation.*"},
		{"settings.rules.view", events.Permission{Namespace: "settings", Perm: "rules.view"}, "settings.rules.view"},
		{"global.*", events.Permission{Namespace: "global", Perm: "*"}, "global.*"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := events.ParsePermission(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, got.String())
			assert.Equal(t, got, events.ParsePermission(got.String()))
		})
	}
}

func TestHasPermission(t *testing.T) {
	t.Parallel()

	perms := func(values ...string) []events.Permission {
		out := make([]events.Permission, 0, len(values))
		for _, v := range values {
			out = append(out, events.ParsePermission(v))
		}

		return out
	}

	kick := events.ParsePermission("moderation.kick")

	tests := []struct {
		name  string
		perms []events.Permission
		want  bool
	}{
		{"exact", perms("moderation.kick"), true},
		{"namespace wildcard", perms("moderation.*"), true},
		{"global wildcard", perms("global.*"), true},
		{"global namespace", perms("global.kick"), true},
		{"other namespace", perms("settings.kick"), false},
		{"negated", perms("moderation.*", "~moderation.kick"), false},
		{"negated before global", perms("~moderation.kick", "global.*"), true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, events.HasPermission(tt.perms, kick))
		})
	}
}

func TestUserInfo_Helpers(t *testing.T) {
	t.Parallel()

	info := events.UserInfo{
		DiscordPermissions:          discord.PermissionBanMembers,
		KittycatResolvedPermissions: []events.Permission{events.ParsePermission("moderation.*")},
		GuildOwnerID:                7,
		GuildRoles:                  []discord.Role{{ID: 3, Name: "Staff"}},
	}

	assert.True(t, info.IsOwner(7))
	assert.False(t, info.IsOwner(8))
	assert.True(t, info.Can(events.ParsePermission("moderation.ban")))
	assert.False(t, info.Can(events.ParsePermission("settings.view")))
	assert.True(t, info.HasDiscordPermission(discord.PermissionBanMembers))
	assert.False(t, info.HasDiscordPermission(discord.PermissionKickMembers))

	role, ok := info.Role(3)
	require.True(t, ok)
	assert.Equal(t, "Staff", role.Name)

	_, ok = info.Role(4)
	assert.False(t, ok)

	admin := events.UserInfo{DiscordPermissions: discord.PermissionAdministrator}
	assert.True(t, admin.HasDiscordPermission(discord.PermissionKickMembers))
}

func TestPermission_JSON(t *testing.T) {
	t.Parallel()

	data, err := sonic.Marshal([]events.Permission{events.ParsePermission("~moderation.kick")})
	require.NoError(t, err)
	assert.JSONEq(t, `["~moderation.kick"]`, string(data))

	var decoded []events.Permission
	require.NoError(t, sonic.Unmarshal([]byte(`["moderation","global.*"]`), &decoded))
	assert.Equal(t, []events.Permission{
		{Namespace: "moderation", Perm: "*"},
		{Namespace: "global", Perm: "*"},
	}, decoded)
}
