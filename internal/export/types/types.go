package types

// Columns lists the fields written for every exported ledger entry, in order.
var Columns = []string{ //nolint:gochecknoglobals // -
	"id", "src", "kind", "stings", "target", "creator", "state", "reason", "duration", "created_at",
}

// ExportRecord represents a ledger entry in the export files.
type ExportRecord struct {
	ID        string
	Src       string
	Kind      string // "sting" or the punishment kind
	Stings    int32
	Target    string // Pseudonymised target, "system" for system targets
	Creator   string
	State     string
	Reason    string
	Duration  int64 // Seconds, 0 when the entry never expires
	CreatedAt int64 // Unix seconds
}
