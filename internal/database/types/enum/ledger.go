package enum

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrInvalidLedgerState is returned when a ledger state string is not recognized.
var ErrInvalidLedgerState = errors.New("invalid ledger state")

// LedgerState represents the lifecycle status shared by stings and punishments.
// The zero value is LedgerStateActive.
type LedgerState int

const (
	// LedgerStateActive indicates the entry still counts against its target.
	LedgerStateActive LedgerState = iota
	// LedgerStateVoided indicates the entry was nullified.
	LedgerStateVoided
	// LedgerStateHandled indicates the entry was processed or resolved.
	LedgerStateHandled
)

var ledgerStateNames = map[LedgerState]string{
	LedgerStateActive:  "active",
	LedgerStateVoided:  "voided",
	LedgerStateHandled: "handled",
}

var ledgerStateValues = map[string]LedgerState{
	"active":  LedgerStateActive,
	"voided":  LedgerStateVoided,
	"handled": LedgerStateHandled,
}

// LedgerStateValues returns every ledger state in declaration order.
func LedgerStateValues() []LedgerState {
	return []LedgerState{LedgerStateActive, LedgerStateVoided, LedgerStateHandled}
}

// ParseLedgerState converts the stored string form back into a LedgerState.
// Matching is exact: no case folding and no trimming.
func ParseLedgerState(s string) (LedgerState, error) {
	state, ok := ledgerStateValues[s]
	if !ok {
		return LedgerStateActive, fmt.Errorf("%w: %q", ErrInvalidLedgerState, s)
	}

	return state, nil
}

// String returns the lowercase storage form of the state.
func (s LedgerState) String() string {
	if name, ok := ledgerStateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("LedgerState(%d)", int(s))
}

// IsTerminal reports whether no further transition is defined from this state.
func (s LedgerState) IsTerminal() bool {
	return s == LedgerStateVoided || s == LedgerStateHandled
}

// MarshalText implements encoding.TextMarshaler.
func (s LedgerState) MarshalText() ([]byte, error) {
	name, ok := ledgerStateNames[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLedgerState, int(s))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LedgerState) UnmarshalText(text []byte) error {
	state, err := ParseLedgerState(string(text))
	if err != nil {
		return err
	}

	*s = state

	return nil
}

// Value implements driver.Valuer so the state is stored as text.
func (s LedgerState) Value() (driver.Value, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}

	return string(text), nil
}

// Scan implements sql.Scanner.
func (s *LedgerState) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidLedgerState, src)
	}
}
