package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// Envelope is the transport form of an event.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Author    *string         `json:"author,omitempty"`
	GuildID   snowflake.ID    `json:"guild_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEnvelope wraps an event raised in a guild.
func NewEnvelope(guildID snowflake.ID, ev Event, now time.Time) (*Envelope, error) {
	data, err := Payload(ev)
	if err != nil {
		return nil, err
	}

	envelope := &Envelope{
		ID:        uuid.New(),
		Name:      ev.Name(),
		GuildID:   guildID,
		Data:      data,
		CreatedAt: now.UTC(),
	}

	if author, ok := ev.Author(); ok {
		envelope.Author = &author
	}

	return envelope, nil
}

// Decode rebuilds the wrapped event.
func (e *Envelope) Decode() (Event, error) {
	return Decode(e.Name, e.Data)
}

// Marshal encodes the envelope for transport.
func (e *Envelope) Marshal() ([]byte, error) {
	return sonic.Marshal(e)
}

// UnmarshalEnvelope decodes an envelope produced by Marshal.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	if envelope.Name == "" {
		return nil, fmt.Errorf("%w: envelope has no name", ErrUnknownEvent)
	}

	return &envelope, nil
}

// Publisher delivers an event raised in a guild to its consumers.
type Publisher interface {
	Publish(ctx context.Context, guildID snowflake.ID, ev Event) error
}
