package gateway

import (
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Request and response messages of draft.v1.DraftService. They travel as JSON.

type StartDraftRequest = engine.StartDraftRequest

type DraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type AbandonDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	Reason  string    `json:"reason,omitempty"`
}

type DraftResponse struct {
	Draft models.Draft `json:"draft"`
}

type SubmitPickRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	Seat     int       `json:"seat"`
	PlayerID uuid.UUID `json:"player_id"`
}

type SubmitPickResponse struct {
	Pick models.DraftPick `json:"pick"`
}

type EnqueuePreferenceRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	Seat     int       `json:"seat"`
	PlayerID uuid.UUID `json:"player_id"`
	// Position is zero-based; nil appends.
	Position *int `json:"position,omitempty"`
}

type RemovePreferenceRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	Seat     int       `json:"seat"`
	PlayerID uuid.UUID `json:"player_id"`
}

type QueueResponse struct {
	Seat  int         `json:"seat"`
	Queue []uuid.UUID `json:"queue"`
}

type SetAutoPickRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	Seat    int       `json:"seat"`
	Enabled bool      `json:"enabled"`
}

type ParticipantResponse struct {
	Participant models.Participant `json:"participant"`
}

type SnapshotResponse struct {
	Snapshot engine.Snapshot `json:"snapshot"`
}
