package types

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"github.com/uptrace/bun"
)

var (
	ErrStingNotFound   = errors.New("sting not found")
	ErrEntryNotActive  = errors.New("ledger entry is not active")
	ErrInvalidEndState = errors.New("ledger entries can only move to voided or handled")
)

// nullHandleLog is the handle log every new ledger entry starts with.
var nullHandleLog = json.RawMessage("null")

// Sting records accumulated infraction weight against a target in a guild.
type Sting struct {
	bun.BaseModel `bun:"table:stings,alias:s"`

	ID         uuid.UUID        `bun:",pk,type:uuid"`        // Unique identifier assigned at creation
	Src        *string          `bun:",nullzero"`            // Optional source tag (e.g. the module that issued it)
	Stings     int32            `bun:",notnull"`             // Infraction weight
	Reason     *string          `bun:",nullzero"`            // Optional reason
	VoidReason *string          `bun:",nullzero"`            // Reason given when the sting was voided
	GuildID    snowflake.ID     `bun:",notnull"`             // Guild the sting belongs to
	Creator    Target           `bun:",notnull,type:text"`   // Who issued the sting
	Target     Target           `bun:",notnull,type:text"`   // Who the sting applies to
	State      enum.LedgerState `bun:",notnull,type:text"`   // Lifecycle state
	CreatedAt  time.Time        `bun:",notnull"`             // When the sting was created (UTC)
	Duration   *time.Duration   `bun:",nullzero"`            // How long the sting stays active
	ExpiresAt  *time.Time       `bun:",nullzero"`            // CreatedAt plus Duration, set on insert
	StingData  json.RawMessage  `bun:",type:jsonb,nullzero"` // Optional structured metadata
	HandleLog  json.RawMessage  `bun:",type:jsonb,notnull"`  // Audit trail of processing
}

var _ bun.BeforeAppendModelHook = (*Sting)(nil)

// Expiry returns when the sting stops counting, or nil if it never expires.
func (s *Sting) Expiry() *time.Time {
	if s.Duration == nil {
		return nil
	}

	expiresAt := s.CreatedAt.Add(*s.Duration).UTC()

	return &expiresAt
}

// IsExpired reports whether the sting has a duration that elapsed before now.
func (s *Sting) IsExpired(now time.Time) bool {
	expiresAt := s.Expiry()
	return expiresAt != nil && !now.Before(*expiresAt)
}

// BeforeAppendModel keeps the stored expiry in line with the duration on insert.
func (s *Sting) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		s.ExpiresAt = s.Expiry()
	}

	return nil
}

// StingCreate is a request to create a sting. The ledger assigns the
// identifier, the creation time and an empty handle log.
type StingCreate struct {
	Src        *string          `json:"src"`
	Stings     int32            `json:"stings"`
	Reason     *string          `json:"reason"`
	VoidReason *string          `json:"void_reason"`
	GuildID    snowflake.ID     `json:"guild_id"`
	Creator    Target           `json:"creator"`
	Target     Target           `json:"target"`
	State      enum.LedgerState `json:"state"`
	Duration   *time.Duration   `json:"duration"`
	StingData  json.RawMessage  `json:"sting_data"`
}

// ToSting builds a Sting from the request. No validation is performed.
func (c *StingCreate) ToSting(id uuid.UUID, createdAt time.Time) *Sting {
	sting := &Sting{
		ID:         id,
		Src:        c.Src,
		Stings:     c.Stings,
		Reason:     c.Reason,
		VoidReason: c.VoidReason,
		GuildID:    c.GuildID,
		Creator:    c.Creator,
		Target:     c.Target,
		State:      c.State,
		CreatedAt:  createdAt.UTC(),
		Duration:   c.Duration,
		StingData:  c.StingData,
		HandleLog:  nullHandleLog,
	}
	sting.ExpiresAt = sting.Expiry()

	return sting
}

// StingAggregate is the total weight of active stings grouped by (src, target).
type StingAggregate struct {
	Src         *string `bun:"src"`
	Target      Target  `bun:"target"`
	TotalStings int64   `bun:"total_stings"`
}

// TotalStings returns the sum of all rows regardless of target.
func TotalStings(rows []StingAggregate) int64 {
	var total int64
	for _, row := range rows {
		total += row.TotalStings
	}

	return total
}

// TotalStingsPerUser folds the rows into per-user totals and the system total.
// System stings apply to every user in the returned map exactly once. Users
// without at least one direct row are not included.
func TotalStingsPerUser(rows []StingAggregate) (map[snowflake.ID]int64, int64) {
	perUser := make(map[snowflake.ID]int64)

	var systemTotal int64
	for _, row := range rows {
		userID, ok := row.Target.UserID()
		if !ok {
			systemTotal += row.TotalStings
			continue
		}

		perUser[userID] += row.TotalStings
	}

	for userID := range perUser {
		perUser[userID] += systemTotal
	}

	return perUser, systemTotal
}
