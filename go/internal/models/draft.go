package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the lifecycle state of a draft session.
type DraftStatus string

const (
	DraftStatusScheduled DraftStatus = "SCHEDULED"
	DraftStatusLive      DraftStatus = "LIVE"
	DraftStatusPaused    DraftStatus = "PAUSED"
	DraftStatusComplete  DraftStatus = "COMPLETE"
	DraftStatusAbandoned DraftStatus = "ABANDONED"
)

// Terminal reports whether no further mutation is accepted in this state.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusComplete || s == DraftStatusAbandoned
}

// DraftSettings holds the per-session configuration. Stored as JSON alongside the draft.
type DraftSettings struct {
	Rounds             int          `json:"rounds" yaml:"rounds"`
	TimePerPickMs      int64        `json:"time_per_pick_ms" yaml:"time_per_pick_ms"`
	AutoPickDelayMs    int64        `json:"auto_pick_delay_ms,omitempty" yaml:"auto_pick_delay_ms"`
	ThirdRoundReversal bool         `json:"third_round_reversal,omitempty" yaml:"third_round_reversal"`
	RosterSlots        []RosterSlot `json:"roster_slots,omitempty" yaml:"roster_slots"`
	PoolID             string       `json:"pool_id" yaml:"pool_id"`
}

// TimePerPick returns the per-pick clock duration.
func (s DraftSettings) TimePerPick() time.Duration {
	return time.Duration(s.TimePerPickMs) * time.Millisecond
}

// AutoPickDelay returns how long an auto-pick enabled seat waits before its clock expires.
func (s DraftSettings) AutoPickDelay() time.Duration {
	return time.Duration(s.AutoPickDelayMs) * time.Millisecond
}

// Draft represents a draft session record.
type Draft struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Status       DraftStatus   `json:"status"`
	Settings     DraftSettings `json:"settings"`
	Participants []Participant `json:"participants"`
	// PickCount is the number of committed picks; the turn pointer is derived from it.
	PickCount int `json:"pick_count"`
	// ClockRemainingMs is the frozen clock remainder while paused.
	ClockRemainingMs *int64     `json:"clock_remaining_ms,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TotalPicks returns rounds * participants.
func (d Draft) TotalPicks() int {
	return d.Settings.Rounds * len(d.Participants)
}

// ParticipantForSeat returns the participant sitting in the 1-based seat.
func (d Draft) ParticipantForSeat(seat int) (Participant, bool) {
	for _, p := range d.Participants {
		if p.Seat == seat {
			return p, true
		}
	}
	return Participant{}, false
}

// Clone returns a deep copy so callers can mutate it without sharing slices.
func (d Draft) Clone() Draft {
	c := d
	c.Participants = append([]Participant(nil), d.Participants...)
	if d.Settings.RosterSlots != nil {
		c.Settings.RosterSlots = make([]RosterSlot, len(d.Settings.RosterSlots))
		for i, s := range d.Settings.RosterSlots {
			s.Eligible = append([]string(nil), s.Eligible...)
			c.Settings.RosterSlots[i] = s
		}
	}
	if d.ClockRemainingMs != nil {
		v := *d.ClockRemainingMs
		c.ClockRemainingMs = &v
	}
	if d.StartedAt != nil {
		v := *d.StartedAt
		c.StartedAt = &v
	}
	if d.CompletedAt != nil {
		v := *d.CompletedAt
		c.CompletedAt = &v
	}
	return c
}
