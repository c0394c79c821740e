// Package events defines the state-diff events a draft session emits.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the wire name of an event.
type Type string

const (
	TypePickCommitted  Type = "pick.committed"
	TypeTurnChanged    Type = "turn.changed"
	TypeDraftStarted   Type = "draft.started"
	TypeDraftPaused    Type = "draft.paused"
	TypeDraftResumed   Type = "draft.resumed"
	TypeDraftCompleted Type = "draft.completed"
	TypeDraftAbandoned Type = "draft.abandoned"
)

// Event is the envelope every sink receives. Sequence increases by one per event of a draft.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	Type      Type            `json:"type"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New marshals payload into an event envelope.
func New(draftID uuid.UUID, sequence uint64, typ Type, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return Event{
		ID:        uuid.New(),
		DraftID:   draftID,
		Type:      typ,
		Sequence:  sequence,
		Timestamp: at.UTC(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}
