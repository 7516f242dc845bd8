package events

import (
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

const (
	permissionNegator   = "~"
	permissionWildcard  = "*"
	permissionNamespace = "global"
)

// Permission is a staff permission in the "namespace.perm" form.
// A leading "~" negates the permission.
type Permission struct {
	Namespace string
	Perm      string
	Negator   bool
}

// ParsePermission parses a permission string. A string without a dot grants
// the whole namespace.
func ParsePermission(s string) Permission {
	negator := strings.HasPrefix(s, permissionNegator)
	s = strings.TrimPrefix(s, permissionNegator)

	namespace, perm, found := strings.Cut(s, ".")
	if !found {
		perm = permissionWildcard
	}

	return Permission{Namespace: namespace, Perm: perm, Negator: negator}
}

// String formats the permission back into its string form.
func (p Permission) String() string {
	var b strings.Builder

	if p.Negator {
		b.WriteString(permissionNegator)
	}

	b.WriteString(p.Namespace)
	b.WriteByte('.')
	b.WriteString(p.Perm)

	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Permission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Permission) UnmarshalText(text []byte) error {
	*p = ParsePermission(string(text))
	return nil
}

// HasPermission reports whether perms grant perm.
// A non negated "global.*" grants everything. Otherwise any matching negated
// entry revokes the permission even when another entry grants it.
func HasPermission(perms []Permission, perm Permission) bool {
	granted, negated := false, false

	for _, p := range perms {
		if !p.Negator && p.Namespace == permissionNamespace && p.Perm == permissionWildcard {
			return true
		}

		namespaceMatches := p.Namespace == perm.Namespace || p.Namespace == permissionNamespace
		permMatches := p.Perm == permissionWildcard || p.Perm == perm.Perm

		if namespaceMatches && permMatches {
			granted = true

			if p.Negator {
				negated = true
			}
		}
	}

	return granted && !negated
}

// PartialStaffPosition is a staff position held by a user.
type PartialStaffPosition struct {
	ID    string       `json:"id"`
	Index int32        `json:"index"`
	Perms []Permission `json:"perms"`
}

// StaffPermissions is the unresolved set of staff positions and overrides of a user.
type StaffPermissions struct {
	UserPositions []PartialStaffPosition `json:"user_positions"`
	PermOverrides []Permission           `json:"perm_overrides"`
}

// UserInfo is a snapshot of a member's resolved permissions in a guild.
type UserInfo struct {
	DiscordPermissions          discord.Permissions `json:"discord_permissions"`
	KittycatStaffPermissions    StaffPermissions    `json:"kittycat_staff_permissions"`
	KittycatResolvedPermissions []Permission        `json:"kittycat_resolved_permissions"`
	GuildOwnerID                snowflake.ID        `json:"guild_owner_id"`
	GuildRoles                  []discord.Role      `json:"guild_roles"`
	MemberRoles                 []snowflake.ID      `json:"member_roles"`
}

// IsOwner reports whether userID owns the guild.
func (u *UserInfo) IsOwner(userID snowflake.ID) bool {
	return u.GuildOwnerID == userID
}

// Can reports whether the resolved staff permissions grant perm.
func (u *UserInfo) Can(perm Permission) bool {
	return HasPermission(u.KittycatResolvedPermissions, perm)
}

// HasDiscordPermission reports whether the member holds a Discord permission.
// Administrators hold every permission.
func (u *UserInfo) HasDiscordPermission(perm discord.Permissions) bool {
	return u.DiscordPermissions.Has(discord.PermissionAdministrator) || u.DiscordPermissions.Has(perm)
}

// Role looks up one of the guild's roles.
func (u *UserInfo) Role(id snowflake.ID) (discord.Role, bool) {
	for _, role := range u.GuildRoles {
		if role.ID == id {
			return role, true
		}
	}

	return discord.Role{}, false
}
