package events

import (
	"time"
)

// Event payload types shared between the engine, the broadcasters and the gateway.

// PickCommittedPayload is the payload for a pick.committed event
type PickCommittedPayload struct {
	PickID        string    `json:"pick_id"`
	Seat          int       `json:"seat"`
	ParticipantID string    `json:"participant_id"`
	PlayerID      string    `json:"player_id"`
	PlayerName    string    `json:"player_name"`
	Position      string    `json:"position"`
	Round         int       `json:"round"`
	Pick          int       `json:"pick"`
	OverallPick   int       `json:"overall_pick"`
	Origin        string    `json:"origin"`
	MadeAt        time.Time `json:"made_at"`
}

// TurnChangedPayload is the payload for a turn.changed event
type TurnChangedPayload struct {
	Seat          int       `json:"seat"`
	ParticipantID string    `json:"participant_id"`
	Round         int       `json:"round"`
	Pick          int       `json:"pick"`
	OverallPick   int       `json:"overall_pick"`
	StartedAt     time.Time `json:"started_at"`
	Deadline      time.Time `json:"deadline"`
	TimePerPickMs int64     `json:"time_per_pick_ms"`
	AutoPick      bool      `json:"auto_pick"`
}

// DraftStartedPayload is the payload for a draft.started event
type DraftStartedPayload struct {
	StartedAt   time.Time `json:"started_at"`
	Teams       int       `json:"teams"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a draft.paused event
type DraftPausedPayload struct {
	PausedAt    time.Time `json:"paused_at"`
	OverallPick int       `json:"overall_pick"`
	RemainingMs int64     `json:"remaining_ms"`
}

// DraftResumedPayload is the payload for a draft.resumed event
type DraftResumedPayload struct {
	ResumedAt   time.Time `json:"resumed_at"`
	OverallPick int       `json:"overall_pick"`
	Deadline    time.Time `json:"deadline"`
}

// DraftCompletedPayload is the payload for a draft.completed event
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftAbandonedPayload is the payload for a draft.abandoned event
type DraftAbandonedPayload struct {
	AbandonedAt time.Time `json:"abandoned_at"`
	Reason      string    `json:"reason"`
	PicksMade   int       `json:"picks_made"`
}
