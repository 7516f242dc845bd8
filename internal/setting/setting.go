// Package setting describes configurable entities exposed to guild operators.
// Columns keep their declaration order because it is the order they are displayed in.
package setting

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrDuplicateColumn indicates that two columns share an ID.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrMissingPrimaryKey indicates that the primary key does not name a column.
	ErrMissingPrimaryKey = errors.New("primary key is not a column")
	// ErrEmptyID indicates that a setting or column has no ID.
	ErrEmptyID = errors.New("id must not be empty")
)

// Column describes one field of a setting.
type Column struct {
	ID          string           `json:"id"`          // Column name in the database
	Name        string           `json:"name"`        // Friendly name shown to users
	Description string           `json:"description"` // Help text for the column
	ColumnType  ColumnType       `json:"column_type"` // Value shape
	Nullable    bool             `json:"nullable"`    // Whether the column accepts null
	Suggestions ColumnSuggestion `json:"suggestions"` // Input hints
	Secret      bool             `json:"secret"`      // Hidden from users
	IgnoredFor  []OperationType  `json:"ignored_for"` // Operations that skip this column
}

// IsIgnoredFor reports whether the column is skipped by the given operation.
func (c *Column) IsIgnoredFor(op OperationType) bool {
	for _, ignored := range c.IgnoredFor {
		if ignored == op {
			return true
		}
	}

	return false
}

// DisplayName returns the friendly name, falling back to a title cased ID.
func (c *Column) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}

	return cases.Title(language.English).String(strings.ReplaceAll(c.ID, "_", " "))
}

// SettingOperations lists which operations a setting supports.
type SettingOperations struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Supports reports whether op is enabled.
func (o SettingOperations) Supports(op OperationType) bool {
	switch op {
	case OperationTypeView:
		return o.View
	case OperationTypeCreate:
		return o.Create
	case OperationTypeUpdate:
		return o.Update
	case OperationTypeDelete:
		return o.Delete
	default:
		return false
	}
}

// Setting is the schema of a configurable entity.
type Setting struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	PrimaryKey          string            `json:"primary_key"`
	TitleTemplate       string            `json:"title_template"`
	Columns             []Column          `json:"columns"`
	SupportedOperations SettingOperations `json:"supported_operations"`
}

// Column looks up a column by ID.
func (s *Setting) Column(id string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return &s.Columns[i], true
		}
	}

	return nil, false
}

// ColumnsFor returns the columns used by an operation in declaration order.
func (s *Setting) ColumnsFor(op OperationType) []Column {
	columns := make([]Column, 0, len(s.Columns))

	for _, column := range s.Columns {
		if !column.IsIgnoredFor(op) {
			columns = append(columns, column)
		}
	}

	return columns
}

// Validate checks that column IDs are unique and that the primary key names a column.
func (s *Setting) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("setting: %w", ErrEmptyID)
	}

	seen := make(map[string]struct{}, len(s.Columns))

	for _, column := range s.Columns {
		if column.ID == "" {
			return fmt.Errorf("setting %q column: %w", s.ID, ErrEmptyID)
		}

		if _, ok := seen[column.ID]; ok {
			return fmt.Errorf("%w: %q in setting %q", ErrDuplicateColumn, column.ID, s.ID)
		}

		seen[column.ID] = struct{}{}
	}

	if _, ok := seen[s.PrimaryKey]; !ok {
		return fmt.Errorf("%w: %q in setting %q", ErrMissingPrimaryKey, s.PrimaryKey, s.ID)
	}

	return nil
}
