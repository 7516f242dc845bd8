package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/types/enum"
)

// LedgerCursor represents a pagination cursor for sting and punishment listings.
type LedgerCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// LedgerFilter narrows a ledger listing. Nil fields match everything.
type LedgerFilter struct {
	Target *Target
	State  *enum.LedgerState
}
