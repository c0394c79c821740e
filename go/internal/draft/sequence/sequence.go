// Package sequence computes whose turn it is from the number of picks made so far.
package sequence

import (
	"strconv"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
)

// MinTeams is the smallest draftable field.
const MinTeams = 2

// Order is the pick order of one session. Seats and pick numbers are 1-based.
type Order struct {
	teams              int
	rounds             int
	thirdRoundReversal bool
}

// Slot is one position on the draft board.
type Slot struct {
	Round       int `json:"round"`
	Pick        int `json:"pick"`
	OverallPick int `json:"overall_pick"`
	Seat        int `json:"seat"`
}

// New builds a snake order, optionally with third round reversal.
func New(teams, rounds int, thirdRoundReversal bool) (Order, error) {
	if teams < MinTeams {
		return Order{}, drafterr.WithMetadata(drafterr.CodeConfiguration, "draft needs at least two participants",
			map[string]string{"participants": strconv.Itoa(teams)})
	}
	if rounds < 1 {
		return Order{}, drafterr.WithMetadata(drafterr.CodeConfiguration, "draft needs at least one round",
			map[string]string{"rounds": strconv.Itoa(rounds)})
	}
	return Order{teams: teams, rounds: rounds, thirdRoundReversal: thirdRoundReversal}, nil
}

// SeatForPick returns the seat on the clock for overallPick in a plain snake draft.
// Callers must reject pick numbers beyond rounds*teams themselves.
func SeatForPick(overallPick, teams int) (int, error) {
	if err := checkPick(overallPick, teams); err != nil {
		return 0, err
	}
	return seat(overallPick, teams, false), nil
}

// RoundForPick returns the 1-based round of overallPick.
func RoundForPick(overallPick, teams int) (int, error) {
	if err := checkPick(overallPick, teams); err != nil {
		return 0, err
	}
	return (overallPick-1)/teams + 1, nil
}

// IndexWithinRound returns the 1-based position of overallPick within its round,
// counted in pick order rather than by seat.
func IndexWithinRound(overallPick, teams int) (int, error) {
	if err := checkPick(overallPick, teams); err != nil {
		return 0, err
	}
	return (overallPick-1)%teams + 1, nil
}

func checkPick(overallPick, teams int) error {
	if teams < MinTeams {
		return drafterr.WithMetadata(drafterr.CodeConfiguration, "draft needs at least two participants",
			map[string]string{"participants": strconv.Itoa(teams)})
	}
	if overallPick < 1 {
		return drafterr.WithMetadata(drafterr.CodeInvalidArgument, "pick numbers start at 1",
			map[string]string{"overall_pick": strconv.Itoa(overallPick)})
	}
	return nil
}

func (o Order) Teams() int      { return o.teams }
func (o Order) Rounds() int     { return o.rounds }
func (o Order) TotalPicks() int { return o.teams * o.rounds }

// InRange reports whether overallPick exists on the board.
func (o Order) InRange(overallPick int) bool {
	return overallPick >= 1 && overallPick <= o.TotalPicks()
}

// Round returns the 1-based round of overallPick.
func (o Order) Round(overallPick int) int {
	return (overallPick-1)/o.teams + 1
}

// PickInRound returns the 1-based index of overallPick within its round.
func (o Order) PickInRound(overallPick int) int {
	return (overallPick-1)%o.teams + 1
}

// Seat returns the seat on the clock for overallPick.
func (o Order) Seat(overallPick int) int {
	return seat(overallPick, o.teams, o.thirdRoundReversal)
}

// Slot describes overallPick on the board.
func (o Order) Slot(overallPick int) Slot {
	return Slot{
		Round:       o.Round(overallPick),
		Pick:        o.PickInRound(overallPick),
		OverallPick: overallPick,
		Seat:        o.Seat(overallPick),
	}
}

// Board lists every slot in pick order.
func (o Order) Board() []Slot {
	slots := make([]Slot, 0, o.TotalPicks())
	for n := 1; n <= o.TotalPicks(); n++ {
		slots = append(slots, o.Slot(n))
	}
	return slots
}

func seat(overallPick, teams int, thirdRoundReversal bool) int {
	round := (overallPick-1)/teams + 1
	idx := (overallPick - 1) % teams
	if reversed(round, thirdRoundReversal) {
		return teams - idx
	}
	return idx + 1
}

// reversed reports whether the 1-based round runs from the last seat to the first.
// Third round reversal repeats round two's direction in round three, then keeps alternating.
func reversed(round int, thirdRoundReversal bool) bool {
	if thirdRoundReversal && round >= 3 {
		return round%2 == 1
	}
	return round%2 == 0
}
