package events

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/robalyx/antiraid/internal/setting"
	"github.com/robalyx/antiraid/pkg/utils"
)

// ErrUnknownSettingOp indicates an "op" tag outside View, Create, Update and Delete.
var ErrUnknownSettingOp = errors.New("unknown setting operation")

// SettingAction is the operation requested by a TemplateSettingExecute event.
// View carries filters, every other operation carries fields. Both are encoded
// as ordered maps so the client's column order survives.
type SettingAction struct {
	Op     setting.OperationType
	Fields *setting.OrderedMap[any]
}

// payloadKey returns the member name holding the action's map.
func (a SettingAction) payloadKey() string {
	if a.Op == setting.OperationTypeView {
		return "filters"
	}

	return "fields"
}

// MarshalJSON implements json.Marshaler.
func (a SettingAction) MarshalJSON() ([]byte, error) {
	if !a.Op.IsAOperationType() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSettingOp, a.Op)
	}

	fields := a.Fields
	if fields == nil {
		fields = setting.NewOrderedMap[any]()
	}

	if a.payloadKey() == "filters" {
		return utils.MarshalTagged("op", a.Op.String(), struct {
			Filters *setting.OrderedMap[any] `json:"filters"`
		}{fields})
	}

	return utils.MarshalTagged("op", a.Op.String(), struct {
		Fields *setting.OrderedMap[any] `json:"fields"`
	}{fields})
}

// UnmarshalJSON implements json.Unmarshaler. The op tag is matched exactly.
func (a *SettingAction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op      string                   `json:"op"`
		Filters *setting.OrderedMap[any] `json:"filters"`
		Fields  *setting.OrderedMap[any] `json:"fields"`
	}

	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	op, err := setting.OperationTypeString(raw.Op)
	if err != nil || op.String() != raw.Op {
		return fmt.Errorf("%w: %q", ErrUnknownSettingOp, raw.Op)
	}

	fields := raw.Fields
	if op == setting.OperationTypeView {
		fields = raw.Filters
	}

	if fields == nil {
		fields = setting.NewOrderedMap[any]()
	}

	*a = SettingAction{Op: op, Fields: fields}

	return nil
}
