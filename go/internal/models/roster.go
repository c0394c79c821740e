package models

// AnyPosition in RosterSlot.Eligible accepts every position (bench).
const AnyPosition = "*"

// RosterSlot is a roster requirement: Count slots that accept any of the Eligible positions.
type RosterSlot struct {
	Name     string   `json:"name" yaml:"name"`
	Eligible []string `json:"eligible" yaml:"eligible"`
	Count    int      `json:"count" yaml:"count"`
}

// Accepts reports whether the slot can hold a player at position.
func (s RosterSlot) Accepts(position string) bool {
	for _, e := range s.Eligible {
		if e == AnyPosition || e == position {
			return true
		}
	}
	return false
}
