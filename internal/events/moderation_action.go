package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/antiraid/pkg/utils"
)

// ErrUnknownModerationAction indicates an action tag outside the known set.
var ErrUnknownModerationAction = errors.New("unknown moderation action")

// Moderation action tags.
const (
	ActionKick    = "Kick"
	ActionTempBan = "TempBan"
	ActionBan     = "Ban"
	ActionUnban   = "Unban"
	ActionTimeout = "Timeout"
	ActionPrune   = "Prune"
)

// ModerationAction is the action carried by a ModerationStart event.
// Implementations are KickAction, TempBanAction, BanAction, UnbanAction,
// TimeoutAction and PruneAction.
type ModerationAction interface {
	// ActionName returns the "action" tag of the variant.
	ActionName() string
	// TargetID returns the targeted user, or zero for a prune across all users.
	TargetID() snowflake.ID

	moderationAction()
}

// KickAction removes a member from the guild.
type KickAction struct {
	Member discord.Member `json:"member"`
}

func (KickAction) ActionName() string       { return ActionKick }
func (a KickAction) TargetID() snowflake.ID { return a.Member.User.ID }
func (KickAction) moderationAction()        {}

func (a KickAction) MarshalJSON() ([]byte, error) {
	type plain KickAction
	return utils.MarshalTagged("action", ActionKick, plain(a))
}

// TempBanAction bans a user for a limited time.
type TempBanAction struct {
	User         discord.User `json:"user"`
	DurationSecs uint64       `json:"duration"`
	PruneDMD     uint8        `json:"prune_dmd"` // Days of messages to delete
}

func (TempBanAction) ActionName() string       { return ActionTempBan }
func (a TempBanAction) TargetID() snowflake.ID { return a.User.ID }
func (TempBanAction) moderationAction()        {}

// Duration returns the length of the ban.
func (a TempBanAction) Duration() time.Duration {
	return time.Duration(a.DurationSecs) * time.Second
}

func (a TempBanAction) MarshalJSON() ([]byte, error) {
	type plain TempBanAction
	return utils.MarshalTagged("action", ActionTempBan, plain(a))
}

// BanAction bans a user permanently.
type BanAction struct {
	User     discord.User `json:"user"`
	PruneDMD uint8        `json:"prune_dmd"`
}

func (BanAction) ActionName() string       { return ActionBan }
func (a BanAction) TargetID() snowflake.ID { return a.User.ID }
func (BanAction) moderationAction()        {}

func (a BanAction) MarshalJSON() ([]byte, error) {
	type plain BanAction
	return utils.MarshalTagged("action", ActionBan, plain(a))
}

// UnbanAction lifts a ban.
type UnbanAction struct {
	User discord.User `json:"user"`
}

func (UnbanAction) ActionName() string       { return ActionUnban }
func (a UnbanAction) TargetID() snowflake.ID { return a.User.ID }
func (UnbanAction) moderationAction()        {}

func (a UnbanAction) MarshalJSON() ([]byte, error) {
	type plain UnbanAction
	return utils.MarshalTagged("action", ActionUnban, plain(a))
}

// TimeoutAction prevents a member from communicating for a while.
type TimeoutAction struct {
	Member       discord.Member `json:"member"`
	DurationSecs uint64         `json:"duration"`
}

func (TimeoutAction) ActionName() string       { return ActionTimeout }
func (a TimeoutAction) TargetID() snowflake.ID { return a.Member.User.ID }
func (TimeoutAction) moderationAction()        {}

// Duration returns the length of the timeout.
func (a TimeoutAction) Duration() time.Duration {
	return time.Duration(a.DurationSecs) * time.Second
}

func (a TimeoutAction) MarshalJSON() ([]byte, error) {
	type plain TimeoutAction
	return utils.MarshalTagged("action", ActionTimeout, plain(a))
}

// PruneAction deletes messages, optionally limited to one user.
type PruneAction struct {
	User      *discord.User   `json:"user"`
	PruneOpts json.RawMessage `json:"prune_opts"`
	Channels  []snowflake.ID  `json:"channels"`
}

func (PruneAction) ActionName() string { return ActionPrune }

func (a PruneAction) TargetID() snowflake.ID {
	if a.User == nil {
		return 0
	}

	return a.User.ID
}

func (PruneAction) moderationAction() {}

func (a PruneAction) MarshalJSON() ([]byte, error) {
	type plain PruneAction

	if a.Channels == nil {
		a.Channels = []snowflake.ID{}
	}

	return utils.MarshalTagged("action", ActionPrune, plain(a))
}

// DecodeModerationAction decodes an action object using its "action" tag.
func DecodeModerationAction(data []byte) (ModerationAction, error) {
	tag, err := utils.PeekTag(data, "action")
	if err != nil {
		return nil, fmt.Errorf("failed to read moderation action tag: %w", err)
	}

	switch tag {
	case ActionKick:
		return decodeAction[KickAction](data)
	case ActionTempBan:
		return decodeAction[TempBanAction](data)
	case ActionBan:
		return decodeAction[BanAction](data)
	case ActionUnban:
		return decodeAction[UnbanAction](data)
	case ActionTimeout:
		return decodeAction[TimeoutAction](data)
	case ActionPrune:
		return decodeAction[PruneAction](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModerationAction, tag)
	}
}

func decodeAction[T ModerationAction](data []byte) (ModerationAction, error) {
	var action T
	if err := sonic.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", action.ActionName(), err)
	}

	return action, nil
}
