package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotListsAvailablePlayers(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SnapshotTopN = 5 })
	d := h.live(3, 2)

	first := h.pickBest(d.ID)
	snap := h.snapshot(d.ID)

	require.Len(t, snap.Available, 5)
	for _, p := range snap.Available {
		assert.NotEqual(t, first.PlayerID, p.ID)
	}
	assert.Equal(t, 2, snap.Available[0].Rank)
	assert.Equal(t, 6, snap.TotalPicks)
	require.Len(t, snap.Participants, 3)
	assert.Len(t, snap.Participants[0].Roster, 1)
	assert.Empty(t, snap.Participants[1].Roster)
	assert.Equal(t, 2, snap.Turn.Seat)
	assert.Equal(t, 2, snap.Turn.OverallPick)
}

func TestQueuePreferences(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	available := h.snapshot(d.ID).Available
	a, b, c := available[1].ID, available[2].ID, available[3].ID

	q, err := h.engine.EnqueuePreference(h.ctx, d.ID, 2, a, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, q)

	q, err = h.engine.EnqueuePreference(h.ctx, d.ID, 2, b, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, q)

	front := 0
	q, err = h.engine.EnqueuePreference(h.ctx, d.ID, 2, c, &front)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, a, b}, q)

	q, err = h.engine.RemovePreference(h.ctx, d.ID, 2, a)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, b}, q)

	q, err = h.engine.RemovePreference(h.ctx, d.ID, 2, a)
	require.NoError(t, err, "removing an unqueued player is a no-op")
	assert.Equal(t, []uuid.UUID{c, b}, q)

	stored, err := h.store.ListQueues(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, b}, stored[2])

	t.Run("rejections", func(t *testing.T) {
		_, err := h.engine.EnqueuePreference(h.ctx, d.ID, 3, a, nil)
		assert.ErrorIs(t, err, drafterr.ErrInvalidArgument)

		_, err = h.engine.EnqueuePreference(h.ctx, d.ID, 2, uuid.New(), nil)
		assert.ErrorIs(t, err, drafterr.ErrIneligiblePlayer)

		negative := -1
		_, err = h.engine.EnqueuePreference(h.ctx, d.ID, 2, a, &negative)
		assert.ErrorIs(t, err, drafterr.ErrInvalidArgument)

		drafted := h.pickBest(d.ID)
		_, err = h.engine.EnqueuePreference(h.ctx, d.ID, 2, drafted.PlayerID, nil)
		assert.ErrorIs(t, err, drafterr.ErrPlayerAlreadyTaken)
	})
}
