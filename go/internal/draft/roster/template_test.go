package roster

import (
	"testing"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardSlots() []models.RosterSlot {
	return []models.RosterSlot{
		{Name: "QB", Eligible: []string{"QB"}, Count: 1},
		{Name: "RB", Eligible: []string{"RB"}, Count: 2},
		{Name: "WR", Eligible: []string{"WR"}, Count: 2},
		{Name: "FLEX", Eligible: []string{"RB", "WR", "TE"}, Count: 1},
		{Name: "BN", Eligible: []string{models.AnyPosition}, Count: 2},
	}
}

func TestNewTemplateValidation(t *testing.T) {
	_, err := NewTemplate([]models.RosterSlot{{Name: "QB", Eligible: []string{"QB"}, Count: 0}})
	assert.ErrorIs(t, err, drafterr.ErrConfiguration)

	_, err = NewTemplate([]models.RosterSlot{{Name: "X", Count: 1}})
	assert.ErrorIs(t, err, drafterr.ErrConfiguration)

	tpl, err := NewTemplate(standardSlots())
	require.NoError(t, err)
	assert.Equal(t, 8, tpl.Size())
	assert.False(t, tpl.Unrestricted())
}

func TestCanAdd(t *testing.T) {
	tpl, err := NewTemplate(standardSlots())
	require.NoError(t, err)

	tests := []struct {
		name     string
		current  []string
		position string
		want     bool
	}{
		{name: "empty roster", current: nil, position: "QB", want: true},
		{name: "second qb goes to bench", current: []string{"QB"}, position: "QB", want: true},
		{name: "qb bench full", current: []string{"QB", "QB", "QB"}, position: "QB", want: false},
		{name: "kicker only on bench", current: nil, position: "K", want: true},
		{name: "third rb uses flex", current: []string{"RB", "RB"}, position: "RB", want: true},
		{
			name:     "te after flex and bench filled",
			current:  []string{"RB", "RB", "RB", "QB", "QB", "QB"},
			position: "TE",
			want:     false,
		},
		{
			name:     "second wr fills the wr slot",
			current:  []string{"QB", "RB", "RB", "RB", "K", "WR"},
			position: "WR",
			want:     true,
		},
		{
			name:     "roster full",
			current:  []string{"QB", "RB", "RB", "WR", "WR", "TE", "K", "K"},
			position: "WR",
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tpl.CanAdd(tt.current, tt.position))
		})
	}
}

func TestAssignUsesFlexOnlyWhenNeeded(t *testing.T) {
	tpl, err := NewTemplate([]models.RosterSlot{
		{Name: "FLEX", Eligible: []string{"RB", "WR"}, Count: 1},
		{Name: "WR", Eligible: []string{"WR"}, Count: 1},
	})
	require.NoError(t, err)

	// The WR drafted first takes the flex, then has to move so the RB fits.
	slots, ok := tpl.Assign([]string{"WR", "RB"})
	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, slots)

	_, ok = tpl.Assign([]string{"RB", "RB"})
	assert.False(t, ok)
}

func TestUnrestrictedTemplate(t *testing.T) {
	tpl, err := NewTemplate(nil)
	require.NoError(t, err)
	assert.True(t, tpl.Unrestricted())
	assert.True(t, tpl.CanAdd([]string{"QB", "QB", "QB"}, "QB"))
}

func TestDedicatedDemand(t *testing.T) {
	tpl, err := NewTemplate(standardSlots())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"QB": 12, "RB": 24, "WR": 24}, tpl.DedicatedDemand(12))
}
