package setting_test

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/robalyx/antiraid/internal/setting"
	"github.com/robalyx/antiraid/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSetting() setting.Setting {
	flags := setting.NewOrderedMap[int64]()
	flags.Set("kick", 1)
	flags.Set("ban", 2)
	flags.Set("timeout", 4)

	return setting.Setting{
		ID:            "sting_rules",
		Name:          "Sting Rules",
		Description:   "Punishments applied once a user reaches a sting count",
		PrimaryKey:    "id",
		TitleTemplate: "{id}",
		Columns: []setting.Column{
			{
				ID:          "id",
				ColumnType:  setting.Scalar(setting.StringColumn("uuid", nil, nil)),
				Suggestions: setting.ColumnSuggestion{},
				IgnoredFor:  []setting.OperationType{setting.OperationTypeCreate, setting.OperationTypeUpdate},
			},
			{
				ID:          "stings",
				Name:        "Sting Count",
				ColumnType:  setting.Scalar(setting.IntegerColumn()),
				Suggestions: setting.StaticSuggestions("1", "5", "10"),
			},
			{
				ID:         "actions",
				ColumnType: setting.Array(setting.BitFlagColumn(flags)),
				Nullable:   true,
			},
			{
				ID:         "extra",
				ColumnType: setting.Scalar(setting.JSONColumn(utils.Ptr(1024))),
				Secret:     true,
			},
		},
		SupportedOperations: setting.SettingOperations{View: true, Create: true, Delete: true},
	}
}

func TestSetting_RoundTripPreservesColumnOrder(t *testing.T) {
	t.Parallel()

	original := newTestSetting()

	data, err := sonic.Marshal(original)
	require.NoError(t, err)

	var decoded setting.Setting
	require.NoError(t, sonic.Unmarshal(data, &decoded))

	ids := make([]string, 0, len(decoded.Columns))
	for _, column := range decoded.Columns {
		ids = append(ids, column.ID)
	}

	assert.Equal(t, []string{"id", "stings", "actions", "extra"}, ids)
	assert.Equal(t, original.SupportedOperations, decoded.SupportedOperations)
	assert.Equal(t, original.Columns[0].IgnoredFor, decoded.Columns[0].IgnoredFor)
	assert.Equal(t, setting.SuggestionKindNone, decoded.Columns[0].Suggestions.Kind)
	assert.Equal(t, []string{"1", "5", "10"}, decoded.Columns[1].Suggestions.Suggestions)

	actions := decoded.Columns[2].ColumnType
	assert.True(t, actions.IsArray())
	assert.Equal(t, setting.InnerKindBitFlag, actions.Inner.Kind)
	assert.Equal(t, []string{"kick", "ban", "timeout"}, actions.Inner.Values.Keys())

	extra := decoded.Columns[3].ColumnType.Inner
	require.NotNil(t, extra.MaxBytes)
	assert.Equal(t, 1024, *extra.MaxBytes)

	again, err := sonic.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestColumnType_WireFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		column setting.ColumnType
		want   string
	}{
		{
			name:   "scalar string",
			column: setting.Scalar(setting.StringColumn("channel", nil, utils.Ptr(100))),
			want:   `{"type":"Scalar","inner":"String","min_length":null,"max_length":100,"allowed_values":[],"kind":"channel"}`,
		},
		{
			name:   "array boolean",
			column: setting.Array(setting.BooleanColumn()),
			want:   `{"type":"Array","inner":"Boolean"}`,
		},
		{
			name:   "scalar json",
			column: setting.Scalar(setting.JSONColumn(nil)),
			want:   `{"type":"Scalar","inner":"Json","max_bytes":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := sonic.Marshal(tt.column)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestColumnType_RejectsUnknownTags(t *testing.T) {
	t.Parallel()

	var column setting.ColumnType
	require.ErrorIs(t, column.UnmarshalJSON([]byte(`{"type":"Matrix","inner":"Integer"}`)), setting.ErrUnknownColumnType)
	require.ErrorIs(t, column.UnmarshalJSON([]byte(`{"type":"Scalar","inner":"Decimal"}`)), setting.ErrUnknownInnerType)

	var suggestion setting.ColumnSuggestion
	require.ErrorIs(t, suggestion.UnmarshalJSON([]byte(`{"type":"Dynamic"}`)), setting.ErrUnknownSuggestion)

	_, err := sonic.Marshal(setting.ColumnType{Kind: "Matrix", Inner: setting.IntegerColumn()})
	require.Error(t, err)
}

func TestInnerColumnType_AllowsValue(t *testing.T) {
	t.Parallel()

	open := setting.StringColumn("text", nil, nil)
	assert.True(t, open.AllowsValue("anything"))

	closed := setting.StringColumn("text", nil, nil, "kick", "ban")
	assert.True(t, closed.AllowsValue("ban"))
	assert.False(t, closed.AllowsValue("timeout"))
}

func TestSetting_Helpers(t *testing.T) {
	t.Parallel()

	s := newTestSetting()
	require.NoError(t, s.Validate())

	column, ok := s.Column("stings")
	require.True(t, ok)
	assert.Equal(t, "Sting Count", column.DisplayName())

	column, ok = s.Column("actions")
	require.True(t, ok)
	assert.Equal(t, "Actions", column.DisplayName())

	_, ok = s.Column("missing")
	assert.False(t, ok)

	createColumns := s.ColumnsFor(setting.OperationTypeCreate)
	require.Len(t, createColumns, 3)
	assert.Equal(t, "stings", createColumns[0].ID)
	assert.Len(t, s.ColumnsFor(setting.OperationTypeView), 4)

	assert.True(t, s.SupportedOperations.Supports(setting.OperationTypeView))
	assert.False(t, s.SupportedOperations.Supports(setting.OperationTypeUpdate))
}

func TestSetting_Validate(t *testing.T) {
	t.Parallel()

	duplicate := newTestSetting()
	duplicate.Columns = append(duplicate.Columns, setting.Column{ID: "stings"})
	require.ErrorIs(t, duplicate.Validate(), setting.ErrDuplicateColumn)

	missing := newTestSetting()
	missing.PrimaryKey = "guild_id"
	require.ErrorIs(t, missing.Validate(), setting.ErrMissingPrimaryKey)

	empty := newTestSetting()
	empty.ID = ""
	require.ErrorIs(t, empty.Validate(), setting.ErrEmptyID)
}

func TestOperationType_JSON(t *testing.T) {
	t.Parallel()

	data, err := sonic.Marshal([]setting.OperationType{setting.OperationTypeView, setting.OperationTypeDelete})
	require.NoError(t, err)
	assert.JSONEq(t, `["View","Delete"]`, string(data))

	var ops []setting.OperationType
	require.NoError(t, sonic.Unmarshal([]byte(`["Create","Update"]`), &ops))
	assert.Equal(t, []setting.OperationType{setting.OperationTypeCreate, setting.OperationTypeUpdate}, ops)

	require.Error(t, sonic.Unmarshal([]byte(`["Upsert"]`), &ops))
	assert.Equal(t, []string{"View", "Create", "Update", "Delete"}, setting.OperationTypeStrings())
}
