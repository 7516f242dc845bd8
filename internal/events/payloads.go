package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// ErrMissingAction indicates a moderation start event without an action.
var ErrMissingAction = errors.New("moderation start event has no action")

// OnStartup is fired when a set of templates is modified or reloaded.
type OnStartup struct {
	Templates []string
}

func (OnStartup) Name() string           { return NameOnStartup }
func (OnStartup) Author() (string, bool) { return "", false }
func (OnStartup) event()                 {}

// MarshalJSON encodes the payload as the bare list of template names.
func (e OnStartup) MarshalJSON() ([]byte, error) {
	templates := e.Templates
	if templates == nil {
		templates = []string{}
	}

	return sonic.Marshal(templates)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *OnStartup) UnmarshalJSON(data []byte) error {
	return sonic.Unmarshal(data, &e.Templates)
}

// PermissionCheckExecute is fired when a permission check is performed.
type PermissionCheckExecute struct {
	Perm     Permission   `json:"perm"`
	UserID   snowflake.ID `json:"user_id"`
	UserInfo UserInfo     `json:"user_info"`
}

func (PermissionCheckExecute) Name() string { return NamePermissionCheckExecute }

func (e PermissionCheckExecute) Author() (string, bool) {
	return e.UserID.String(), true
}

func (PermissionCheckExecute) event() {}

// ModerationStart is fired before a moderation action is executed.
type ModerationStart struct {
	CorrelationID uuid.UUID        `json:"correlation_id"`
	Action        ModerationAction `json:"action"`
	Moderator     discord.Member   `json:"author"`
	NumStings     int32            `json:"num_stings"`
	Reason        *string          `json:"reason"`
}

// NewModerationStart creates a start event with a fresh correlation ID.
func NewModerationStart(
	action ModerationAction, moderator discord.Member, numStings int32, reason *string,
) ModerationStart {
	return ModerationStart{
		CorrelationID: uuid.New(),
		Action:        action,
		Moderator:     moderator,
		NumStings:     numStings,
		Reason:        reason,
	}
}

func (ModerationStart) Name() string { return NameModerationStart }

func (e ModerationStart) Author() (string, bool) {
	return e.Moderator.User.ID.String(), true
}

func (ModerationStart) event() {}

// End returns the completion event carrying this start event's correlation ID.
func (e ModerationStart) End() ModerationEnd {
	return ModerationEnd{CorrelationID: e.CorrelationID}
}

// UnmarshalJSON decodes the tagged moderation action into its concrete type.
func (e *ModerationStart) UnmarshalJSON(data []byte) error {
	var raw struct {
		CorrelationID uuid.UUID       `json:"correlation_id"`
		Action        json.RawMessage `json:"action"`
		Moderator     discord.Member  `json:"author"`
		NumStings     int32           `json:"num_stings"`
		Reason        *string         `json:"reason"`
	}

	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Action) == 0 || string(raw.Action) == "null" {
		return ErrMissingAction
	}

	action, err := DecodeModerationAction(raw.Action)
	if err != nil {
		return err
	}

	*e = ModerationStart{
		CorrelationID: raw.CorrelationID,
		Action:        action,
		Moderator:     raw.Moderator,
		NumStings:     raw.NumStings,
		Reason:        raw.Reason,
	}

	return nil
}

// ModerationEnd is fired after a moderation action completed.
// It is not guaranteed to be fired for every ModerationStart.
type ModerationEnd struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
}

func (ModerationEnd) Name() string           { return NameModerationEnd }
func (ModerationEnd) Author() (string, bool) { return "", false }
func (ModerationEnd) event()                 {}

// Ends reports whether this event completes the given start event.
func (e ModerationEnd) Ends(start ModerationStart) bool {
	return e.CorrelationID == start.CorrelationID
}

// ExternalKeyUpdate is fired when a key is modified from outside a template.
type ExternalKeyUpdate struct {
	KeyModified string       `json:"key_modified"`
	AuthorID    snowflake.ID `json:"author"`
	Action      KeyAction    `json:"action"`
}

func (ExternalKeyUpdate) Name() string { return NameExternalKeyUpdate }

func (e ExternalKeyUpdate) Author() (string, bool) {
	return e.AuthorID.String(), true
}

func (ExternalKeyUpdate) event() {}

// TemplateSettingExecute is fired when a template setting is executed.
// A response must carry the same correlation ID.
type TemplateSettingExecute struct {
	TemplateID    string        `json:"template_id"`
	SettingID     string        `json:"setting_id"`
	CorrelationID uuid.UUID     `json:"correlation_id"`
	Action        SettingAction `json:"action"`
	AuthorID      snowflake.ID  `json:"author"`
}

func (TemplateSettingExecute) Name() string { return NameTemplateSettingExecute }

func (e TemplateSettingExecute) Author() (string, bool) {
	return e.AuthorID.String(), true
}

func (TemplateSettingExecute) event() {}

// ScheduledExecution is fired when a scheduled execution runs.
type ScheduledExecution struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	RunAt time.Time       `json:"run_at"`
}

func (ScheduledExecution) Name() string           { return NameScheduledExecution }
func (ScheduledExecution) Author() (string, bool) { return "", false }
func (ScheduledExecution) event()                 {}

// KeyExpiry is fired when a key value store entry expires.
type KeyExpiry struct {
	ID     string   `json:"id"`
	Key    string   `json:"key"`
	Scopes []string `json:"scopes"`
}

func (KeyExpiry) Name() string           { return NameKeyExpiry }
func (KeyExpiry) Author() (string, bool) { return "", false }
func (KeyExpiry) event()                 {}

// GetSettings is fired when a user requests the settings of a guild.
type GetSettings struct {
	AuthorID snowflake.ID `json:"author"`
}

func (GetSettings) Name() string { return NameGetSettings }

func (e GetSettings) Author() (string, bool) {
	return e.AuthorID.String(), true
}

func (GetSettings) event() {}

// ExecuteSetting is fired when a user runs an operation on a setting.
// Fields is either a map or a list depending on the operation.
type ExecuteSetting struct {
	ID       string       `json:"id"`
	AuthorID snowflake.ID `json:"author"`
	Op       string       `json:"op"`
	Fields   any          `json:"fields"`
}

func (ExecuteSetting) Name() string { return NameExecuteSetting }

func (e ExecuteSetting) Author() (string, bool) {
	return e.AuthorID.String(), true
}

func (ExecuteSetting) event() {}

func decodeAs[T Event](data []byte) (Event, error) {
	var ev T
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return nil, err
	}

	return ev, nil
}

var decoders = map[string]func([]byte) (Event, error){ //nolint:gochecknoglobals // -
	NameOnStartup:              decodeAs[OnStartup],
	NamePermissionCheckExecute: decodeAs[PermissionCheckExecute],
	NameModerationStart:        decodeAs[ModerationStart],
	NameModerationEnd:          decodeAs[ModerationEnd],
	NameExternalKeyUpdate:      decodeAs[ExternalKeyUpdate],
	NameTemplateSettingExecute: decodeAs[TemplateSettingExecute],
	NameScheduledExecution:     decodeAs[ScheduledExecution],
	NameKeyExpiry:              decodeAs[KeyExpiry],
	NameGetSettings:            decodeAs[GetSettings],
	NameExecuteSetting:         decodeAs[ExecuteSetting],
}

// Decode rebuilds an event from its name and encoded payload.
func Decode(name string, payload []byte) (Event, error) {
	decode, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	ev, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", name, err)
	}

	return ev, nil
}
