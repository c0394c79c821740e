package engine

import (
	"slices"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/clock"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Turn identifies the pick on the clock.
type Turn struct {
	Seat          int       `json:"seat"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Round         int       `json:"round"`
	Pick          int       `json:"pick"`
	OverallPick   int       `json:"overall_pick"`
}

// ParticipantState is a seat with its roster so far and its preference queue.
type ParticipantState struct {
	models.Participant
	Roster []models.DraftPick `json:"roster"`
	Queue  []uuid.UUID        `json:"queue"`
}

// Snapshot is everything a reconnecting client needs to render the draft.
type Snapshot struct {
	Draft models.Draft `json:"draft"`
	// Sequence is the sequence of the last event emitted before the snapshot was taken.
	Sequence     uint64             `json:"sequence"`
	Participants []ParticipantState `json:"participants"`
	Picks        []models.DraftPick `json:"picks"`
	TotalPicks   int                `json:"total_picks"`
	Turn         *Turn              `json:"turn,omitempty"`
	Clock        clock.Snapshot     `json:"clock"`
	// Available lists the best ranked undrafted players.
	Available []models.Player `json:"available"`
}

func (s *session) snapshot(topN int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Draft:      s.draft.Clone(),
		Sequence:   s.seq,
		Picks:      slices.Clone(s.picks),
		TotalPicks: s.order.TotalPicks(),
		Clock:      s.clock.Snapshot(),
	}
	if snap.Picks == nil {
		snap.Picks = []models.DraftPick{}
	}

	for _, p := range s.draft.Participants {
		state := ParticipantState{Participant: p, Roster: []models.DraftPick{}, Queue: s.queues.List(p.Seat)}
		for _, pick := range s.picks {
			if pick.Seat == p.Seat {
				state.Roster = append(state.Roster, pick)
			}
		}
		if state.Queue == nil {
			state.Queue = []uuid.UUID{}
		}
		snap.Participants = append(snap.Participants, state)
	}
	slices.SortFunc(snap.Participants, func(a, b ParticipantState) int { return a.Seat - b.Seat })

	if !s.draft.Status.Terminal() {
		slot := s.order.Slot(s.turn())
		participant, _ := s.draft.ParticipantForSeat(slot.Seat)
		snap.Turn = &Turn{
			Seat:          slot.Seat,
			ParticipantID: participant.ID,
			Round:         slot.Round,
			Pick:          slot.Pick,
			OverallPick:   slot.OverallPick,
		}
	}

	snap.Available = s.pool.TopAvailable(topN, func(p models.Player) bool {
		_, taken := s.taken[p.ID]
		return !taken
	})
	if snap.Available == nil {
		snap.Available = []models.Player{}
	}
	return snap
}
