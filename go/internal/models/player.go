package models

import (
	"github.com/google/uuid"
)

// Player is a draftable pool entry.
type Player struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	FullName   string    `json:"full_name"`
	Team       string    `json:"team,omitempty"`
	Position   string    `json:"position"` // 'QB', 'RB', 'WR', etc.
	// Rank is the external ranking (ADP style); lower is better, zero means unranked.
	Rank int `json:"rank"`
}
