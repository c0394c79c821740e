// Package roster decides whether a player still fits a seat's roster slots.
package roster

import (
	"strconv"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Template is the set of roster slots every seat must fill. An empty template accepts any player.
type Template struct {
	slots []models.RosterSlot
	// units expands slots by count, so one unit holds one player.
	units []int
}

// NewTemplate validates slots and builds a template.
func NewTemplate(slots []models.RosterSlot) (*Template, error) {
	t := &Template{slots: append([]models.RosterSlot(nil), slots...)}
	for i, s := range slots {
		if s.Count < 1 {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "roster slot count must be positive",
				map[string]string{"slot": s.Name, "count": strconv.Itoa(s.Count)})
		}
		if len(s.Eligible) == 0 {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "roster slot has no eligible positions",
				map[string]string{"slot": s.Name})
		}
		for range s.Count {
			t.units = append(t.units, i)
		}
	}
	return t, nil
}

// Unrestricted reports whether the template has no slots.
func (t *Template) Unrestricted() bool {
	return len(t.units) == 0
}

// Size is the total number of players the template holds.
func (t *Template) Size() int {
	return len(t.units)
}

func (t *Template) Slots() []models.RosterSlot {
	return append([]models.RosterSlot(nil), t.slots...)
}

// CanAdd reports whether a player at position can join a roster already holding current.
func (t *Template) CanAdd(current []string, position string) bool {
	if t.Unrestricted() {
		return true
	}
	if len(current)+1 > len(t.units) {
		return false
	}
	_, ok := t.Assign(append(append([]string(nil), current...), position))
	return ok
}

// Assign places every position in a slot, returning the slot index for each. It fails when no
// placement exists.
func (t *Template) Assign(positions []string) ([]int, bool) {
	if t.Unrestricted() {
		return nil, true
	}
	if len(positions) > len(t.units) {
		return nil, false
	}

	owner := make([]int, len(t.units)) // unit -> player index, -1 when free
	for i := range owner {
		owner[i] = -1
	}
	for p := range positions {
		seen := make([]bool, len(t.units))
		if !t.augment(p, positions, owner, seen) {
			return nil, false
		}
	}

	out := make([]int, len(positions))
	for u, p := range owner {
		if p >= 0 {
			out[p] = t.units[u]
		}
	}
	return out, true
}

// augment looks for an augmenting path from player p (Kuhn's matching).
func (t *Template) augment(p int, positions []string, owner []int, seen []bool) bool {
	for u, slot := range t.units {
		if seen[u] || !t.slots[slot].Accepts(positions[p]) {
			continue
		}
		seen[u] = true
		if owner[u] < 0 || t.augment(owner[u], positions, owner, seen) {
			owner[u] = p
			return true
		}
	}
	return false
}

// DedicatedDemand counts, per position, how many players teams must draft for slots that accept only
// that position.
func (t *Template) DedicatedDemand(teams int) map[string]int {
	demand := make(map[string]int)
	for _, s := range t.slots {
		if len(s.Eligible) == 1 && s.Eligible[0] != models.AnyPosition {
			demand[s.Eligible[0]] += s.Count * teams
		}
	}
	return demand
}
