package setting

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/robalyx/antiraid/pkg/utils"
)

var (
	// ErrUnknownColumnType indicates a column type tag outside Scalar and Array.
	ErrUnknownColumnType = errors.New("unknown column type")
	// ErrUnknownInnerType indicates an inner column type tag that is not supported.
	ErrUnknownInnerType = errors.New("unknown inner column type")
	// ErrUnknownSuggestion indicates a column suggestion tag that is not supported.
	ErrUnknownSuggestion = errors.New("unknown column suggestion")
)

// ColumnKind tells whether a column holds a single value or an array.
type ColumnKind string

const (
	ColumnKindScalar ColumnKind = "Scalar"
	ColumnKindArray  ColumnKind = "Array"
)

// InnerKind is the value type of a column.
type InnerKind string

const (
	InnerKindString  InnerKind = "String"
	InnerKindInteger InnerKind = "Integer"
	InnerKindFloat   InnerKind = "Float"
	InnerKindBitFlag InnerKind = "BitFlag"
	InnerKindBoolean InnerKind = "Boolean"
	InnerKindJSON    InnerKind = "Json"
)

// ColumnType is the shape of a column.
type ColumnType struct {
	Kind  ColumnKind
	Inner InnerColumnType
}

// Scalar creates a single valued column type.
func Scalar(inner InnerColumnType) ColumnType {
	return ColumnType{Kind: ColumnKindScalar, Inner: inner}
}

// Array creates an array column type.
func Array(inner InnerColumnType) ColumnType {
	return ColumnType{Kind: ColumnKindArray, Inner: inner}
}

// IsArray reports whether the column holds a list of values.
func (c ColumnType) IsArray() bool {
	return c.Kind == ColumnKindArray
}

// MarshalJSON flattens the inner type next to the "type" tag.
func (c ColumnType) MarshalJSON() ([]byte, error) {
	if c.Kind != ColumnKindScalar && c.Kind != ColumnKindArray {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumnType, c.Kind)
	}

	return utils.MarshalTagged("type", string(c.Kind), c.Inner)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ColumnType) UnmarshalJSON(data []byte) error {
	var raw columnTypeJSON
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind := ColumnKind(raw.Type)
	if kind != ColumnKindScalar && kind != ColumnKindArray {
		return fmt.Errorf("%w: %q", ErrUnknownColumnType, raw.Type)
	}

	inner, err := raw.inner()
	if err != nil {
		return err
	}

	*c = ColumnType{Kind: kind, Inner: inner}

	return nil
}

// InnerColumnType is the value type of a column along with its constraints.
// Only the fields belonging to Kind are meaningful.
type InnerColumnType struct {
	Kind InnerKind

	MinLength     *int     // String
	MaxLength     *int     // String
	AllowedValues []string // String; empty allows every value
	StringKind    string   // String; uuid, textarea, channel, user, role, interval, timestamp

	Values *OrderedMap[int64] // BitFlag

	MaxBytes *int // Json
}

// StringColumn creates a string value type.
func StringColumn(kind string, minLength, maxLength *int, allowed ...string) InnerColumnType {
	return InnerColumnType{
		Kind:          InnerKindString,
		MinLength:     minLength,
		MaxLength:     maxLength,
		AllowedValues: allowed,
		StringKind:    kind,
	}
}

// IntegerColumn creates an integer value type.
func IntegerColumn() InnerColumnType {
	return InnerColumnType{Kind: InnerKindInteger}
}

// FloatColumn creates a float value type.
func FloatColumn() InnerColumnType {
	return InnerColumnType{Kind: InnerKindFloat}
}

// BooleanColumn creates a boolean value type.
func BooleanColumn() InnerColumnType {
	return InnerColumnType{Kind: InnerKindBoolean}
}

// BitFlagColumn creates a bit flag value type. The flag order is kept as given.
func BitFlagColumn(values *OrderedMap[int64]) InnerColumnType {
	return InnerColumnType{Kind: InnerKindBitFlag, Values: values}
}

// JSONColumn creates a JSON value type with an optional size limit.
func JSONColumn(maxBytes *int) InnerColumnType {
	return InnerColumnType{Kind: InnerKindJSON, MaxBytes: maxBytes}
}

// AllowsValue reports whether a string value passes the allowed values list.
func (t InnerColumnType) AllowsValue(value string) bool {
	if len(t.AllowedValues) == 0 {
		return true
	}

	for _, allowed := range t.AllowedValues {
		if allowed == value {
			return true
		}
	}

	return false
}

// MarshalJSON writes the kind as the "inner" tag followed by its own fields.
func (t InnerColumnType) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case InnerKindString:
		allowed := t.AllowedValues
		if allowed == nil {
			allowed = []string{}
		}

		return utils.MarshalTagged("inner", string(t.Kind), struct {
			MinLength     *int     `json:"min_length"`
			MaxLength     *int     `json:"max_length"`
			AllowedValues []string `json:"allowed_values"`
			Kind          string   `json:"kind"`
		}{t.MinLength, t.MaxLength, allowed, t.StringKind})
	case InnerKindInteger, InnerKindFloat, InnerKindBoolean:
		return utils.MarshalTagged("inner", string(t.Kind), struct{}{})
	case InnerKindBitFlag:
		values := t.Values
		if values == nil {
			values = NewOrderedMap[int64]()
		}

		return utils.MarshalTagged("inner", string(t.Kind), struct {
			Values *OrderedMap[int64] `json:"values"`
		}{values})
	case InnerKindJSON:
		return utils.MarshalTagged("inner", string(t.Kind), struct {
			MaxBytes *int `json:"max_bytes"`
		}{t.MaxBytes})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInnerType, t.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *InnerColumnType) UnmarshalJSON(data []byte) error {
	var raw columnTypeJSON
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	inner, err := raw.inner()
	if err != nil {
		return err
	}

	*t = inner

	return nil
}

// columnTypeJSON is the flattened wire layout of ColumnType and InnerColumnType.
type columnTypeJSON struct {
	Type          string             `json:"type"`
	Inner         string             `json:"inner"`
	MinLength     *int               `json:"min_length"`
	MaxLength     *int               `json:"max_length"`
	AllowedValues []string           `json:"allowed_values"`
	Kind          string             `json:"kind"`
	Values        *OrderedMap[int64] `json:"values"`
	MaxBytes      *int               `json:"max_bytes"`
}

func (r *columnTypeJSON) inner() (InnerColumnType, error) {
	switch kind := InnerKind(r.Inner); kind {
	case InnerKindString:
		return StringColumn(r.Kind, r.MinLength, r.MaxLength, r.AllowedValues...), nil
	case InnerKindInteger, InnerKindFloat, InnerKindBoolean:
		return InnerColumnType{Kind: kind}, nil
	case InnerKindBitFlag:
		values := r.Values
		if values == nil {
			values = NewOrderedMap[int64]()
		}

		return BitFlagColumn(values), nil
	case InnerKindJSON:
		return JSONColumn(r.MaxBytes), nil
	default:
		return InnerColumnType{}, fmt.Errorf("%w: %q", ErrUnknownInnerType, r.Inner)
	}
}

// SuggestionKind is the kind of hint shown for a column.
type SuggestionKind string

const (
	SuggestionKindNone   SuggestionKind = "None"
	SuggestionKindStatic SuggestionKind = "Static"
)

// ColumnSuggestion holds the input hints for a column.
// The zero value means no suggestions.
type ColumnSuggestion struct {
	Kind        SuggestionKind
	Suggestions []string
}

// StaticSuggestions creates a fixed list of suggestions.
func StaticSuggestions(suggestions ...string) ColumnSuggestion {
	return ColumnSuggestion{Kind: SuggestionKindStatic, Suggestions: suggestions}
}

// MarshalJSON implements json.Marshaler.
func (s ColumnSuggestion) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SuggestionKindStatic:
		suggestions := s.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}

		return utils.MarshalTagged("type", string(s.Kind), struct {
			Suggestions []string `json:"suggestions"`
		}{suggestions})
	case SuggestionKindNone, "":
		return utils.MarshalTagged("type", string(SuggestionKindNone), struct{}{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSuggestion, s.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ColumnSuggestion) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string   `json:"type"`
		Suggestions []string `json:"suggestions"`
	}

	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch SuggestionKind(raw.Type) {
	case SuggestionKindStatic:
		*s = StaticSuggestions(raw.Suggestions...)
	case SuggestionKindNone:
		*s = ColumnSuggestion{Kind: SuggestionKindNone}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSuggestion, raw.Type)
	}

	return nil
}
