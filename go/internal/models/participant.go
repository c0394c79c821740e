package models

import (
	"github.com/google/uuid"
)

// Participant is a drafting seat. Seat is 1-based and fixed for the session.
type Participant struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Seat     int       `json:"seat"`
	AutoPick bool      `json:"auto_pick"`
}
