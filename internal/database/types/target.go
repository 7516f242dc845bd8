package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

const (
	systemTargetText = "system"
	userTargetPrefix = "user:"
)

var (
	// ErrInvalidTargetFormat is returned when text is neither "system" nor "user:<id>".
	ErrInvalidTargetFormat = errors.New("invalid target format")
	// ErrInvalidUserID is returned when the suffix of a "user:" target is not a valid snowflake.
	ErrInvalidUserID = errors.New("invalid target user id")
)

// Target identifies who created or is the subject of a ledger entry.
// It is either a specific Discord user or the system itself.
type Target struct {
	userID snowflake.ID
	system bool
}

// UserTarget returns a target pointing at the given Discord user.
func UserTarget(id snowflake.ID) Target {
	return Target{userID: id}
}

// SystemTarget returns the target representing the system itself.
func SystemTarget() Target {
	return Target{system: true}
}

// ParseTarget parses the persisted string form of a target.
func ParseTarget(text string) (Target, error) {
	if text == systemTargetText {
		return SystemTarget(), nil
	}

	raw, ok := strings.CutPrefix(text, userTargetPrefix)
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTargetFormat, text)
	}

	id, err := snowflake.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %w", ErrInvalidUserID, text, err)
	}

	return UserTarget(id), nil
}

// IsSystem reports whether the target is the system.
func (t Target) IsSystem() bool {
	return t.system
}

// UserID returns the user ID and true when the target is a user.
func (t Target) UserID() (snowflake.ID, bool) {
	if t.system {
		return 0, false
	}

	return t.userID, true
}

// String returns "system" or "user:<id>".
func (t Target) String() string {
	if t.system {
		return systemTargetText
	}

	return userTargetPrefix + t.userID.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(text []byte) error {
	parsed, err := ParseTarget(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// Value implements driver.Valuer.
func (t Target) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *Target) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTargetFormat, src)
	}
}
