package models

import (
	"time"

	"github.com/google/uuid"
)

// PickOrigin records whether a pick was submitted by the participant or made by the clock.
type PickOrigin string

const (
	PickOriginManual PickOrigin = "manual"
	PickOriginAuto   PickOrigin = "auto"
)

// DraftPick represents a single committed pick. Picks are append-only.
type DraftPick struct {
	ID            uuid.UUID  `json:"id"`
	DraftID       uuid.UUID  `json:"draft_id"`
	Round         int        `json:"round"`
	Pick          int        `json:"pick"`         // pick number in the round
	OverallPick   int        `json:"overall_pick"` // pick number overall
	Seat          int        `json:"seat"`
	ParticipantID uuid.UUID  `json:"participant_id"`
	PlayerID      uuid.UUID  `json:"player_id"`
	Origin        PickOrigin `json:"origin"`
	PickedAt      time.Time  `json:"picked_at"`
}
