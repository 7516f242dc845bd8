// Package events defines the closed set of events exchanged between antiraid services.
//
// Every event is an immutable value. Consumers switch over the concrete types:
//
//	switch ev := ev.(type) {
//	case events.ModerationStart:
//	case events.ModerationEnd:
//	}
//
// Moderation start and end events are linked only by their correlation ID.
// An end event is optional and may never arrive.
package events

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var (
	// ErrSerialization indicates that an event payload could not be encoded.
	ErrSerialization = errors.New("failed to serialize event payload")
	// ErrUnknownEvent indicates an event name outside the known set.
	ErrUnknownEvent = errors.New("unknown event")
)

// Stable event names. External consumers route on these values.
const (
	NameOnStartup              = "OnStartup"
	NamePermissionCheckExecute = "PermissionCheckExecute"
	NameModerationStart        = "ModerationStart"
	NameModerationEnd          = "ModerationEnd"
	NameExternalKeyUpdate      = "ExternalKeyUpdate"
	NameTemplateSettingExecute = "TemplateSettingExecute"
	NameScheduledExecution     = "ScheduledExecution"
	NameKeyExpiry              = "KeyExpiry"
	NameGetSettings            = "GetSettings"
	NameExecuteSetting         = "ExecuteSetting"
)

var names = []string{ //nolint:gochecknoglobals // -
	NameOnStartup,
	NamePermissionCheckExecute,
	NameModerationStart,
	NameModerationEnd,
	NameExternalKeyUpdate,
	NameTemplateSettingExecute,
	NameScheduledExecution,
	NameKeyExpiry,
	NameGetSettings,
	NameExecuteSetting,
}

// Event is implemented by every event payload in this package.
type Event interface {
	// Name returns the stable tag of the event kind.
	Name() string
	// Author returns the ID of the acting user for events that have one.
	Author() (string, bool)

	event()
}

// Names returns every event name in declaration order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)

	return out
}

// Payload encodes the payload of an event without its name.
func Payload(ev Event) ([]byte, error) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerialization, ev.Name(), err)
	}

	return data, nil
}

// Value converts the payload of an event into a generic structured value
// made of maps, slices, strings, numbers, booleans and nil.
func Value(ev Event) (any, error) {
	data, err := Payload(ev)
	if err != nil {
		return nil, err
	}

	var value any
	if err := sonic.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerialization, ev.Name(), err)
	}

	return value, nil
}
