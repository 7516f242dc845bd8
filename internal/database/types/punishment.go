package types

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/antiraid/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// ErrPunishmentNotFound is returned when no punishment has the requested ID.
var ErrPunishmentNotFound = errors.New("punishment not found")

// Common punishment kinds. The vocabulary is open so any string is accepted.
const (
	PunishmentKick    = "kick"
	PunishmentBan     = "ban"
	PunishmentTempBan = "tempban"
	PunishmentTimeout = "timeout"
)

// Punishment records an enforcement action applied to a target.
type Punishment struct {
	bun.BaseModel `bun:"table:punishments,alias:p"`

	ID         uuid.UUID        `bun:",pk,type:uuid"`        // Unique identifier assigned at creation
	Src        *string          `bun:",nullzero"`            // Optional source tag
	GuildID    snowflake.ID     `bun:",notnull"`             // Guild the punishment was applied in
	Punishment string           `bun:",notnull"`             // Kind of punishment (ban, timeout, ...)
	Creator    Target           `bun:",notnull,type:text"`   // Who applied the punishment
	Target     Target           `bun:",notnull,type:text"`   // Who was punished
	HandleLog  json.RawMessage  `bun:",type:jsonb,notnull"`  // Audit trail of processing
	CreatedAt  time.Time        `bun:",notnull"`             // When the punishment was created (UTC)
	Duration   *time.Duration   `bun:",nullzero"`            // Length of temporary punishments
	Reason     string           `bun:",notnull"`             // Reason for the punishment
	State      enum.LedgerState `bun:",notnull,type:text"`   // Lifecycle state
	Data       json.RawMessage  `bun:",type:jsonb,nullzero"` // Optional structured metadata
}

// IsTemporary reports whether the punishment carries a duration.
func (p *Punishment) IsTemporary() bool {
	return p.Duration != nil
}

// PunishmentCreate is a request to create a punishment. Unlike stings the
// request may carry its own handle log.
type PunishmentCreate struct {
	Src        *string          `json:"src"`
	GuildID    snowflake.ID     `json:"guild_id"`
	Punishment string           `json:"punishment"`
	Creator    Target           `json:"creator"`
	Target     Target           `json:"target"`
	HandleLog  json.RawMessage  `json:"handle_log"`
	Duration   *time.Duration   `json:"duration"`
	Reason     string           `json:"reason"`
	State      enum.LedgerState `json:"state"`
	Data       json.RawMessage  `json:"data"`
}

// ToPunishment builds a Punishment from the request. No validation is performed.
func (c *PunishmentCreate) ToPunishment(id uuid.UUID, createdAt time.Time) *Punishment {
	handleLog := c.HandleLog
	if len(handleLog) == 0 {
		handleLog = nullHandleLog
	}

	return &Punishment{
		ID:         id,
		Src:        c.Src,
		GuildID:    c.GuildID,
		Punishment: c.Punishment,
		Creator:    c.Creator,
		Target:     c.Target,
		HandleLog:  handleLog,
		CreatedAt:  createdAt.UTC(),
		Duration:   c.Duration,
		Reason:     c.Reason,
		State:      c.State,
		Data:       c.Data,
	}
}
