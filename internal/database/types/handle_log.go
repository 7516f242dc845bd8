package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// HandleLogEntry is one step recorded in a ledger entry's handle log.
type HandleLogEntry struct {
	Action string    `json:"action"`
	Actor  Target    `json:"actor"`
	At     time.Time `json:"at"`
	Note   *string   `json:"note,omitempty"`
}

// AppendHandleLog returns the handle log with the entry appended.
// A null or empty log becomes a single element array. A log holding any
// other non-array value is kept as the first element.
func AppendHandleLog(log json.RawMessage, entry HandleLogEntry) (json.RawMessage, error) {
	var entries []any

	switch {
	case len(log) == 0 || string(log) == "null":
	case log[0] == '[':
		if err := sonic.Unmarshal(log, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode handle log: %w", err)
		}
	default:
		var existing any
		if err := sonic.Unmarshal(log, &existing); err != nil {
			return nil, fmt.Errorf("failed to decode handle log: %w", err)
		}

		entries = append(entries, existing)
	}

	entries = append(entries, entry)

	out, err := sonic.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handle log: %w", err)
	}

	return out, nil
}
