package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/clock"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoPickUsesQueueBeforeRanking(t *testing.T) {
	h := newHarness(t)
	d := h.schedule(6, 2)
	available := h.snapshot(d.ID).Available
	best, drafted, wanted := available[0], available[10], available[11]

	_, err := h.engine.EnqueuePreference(h.ctx, d.ID, 5, drafted.ID, nil)
	require.NoError(t, err)
	_, err = h.engine.EnqueuePreference(h.ctx, d.ID, 5, wanted.ID, nil)
	require.NoError(t, err)

	_, err = h.engine.BeginLive(h.ctx, d.ID)
	require.NoError(t, err)
	for seat := 1; seat <= 4; seat++ {
		player := available[seat]
		if seat == 3 {
			player = drafted
		}
		_, err := h.engine.SubmitPick(h.ctx, d.ID, seat, player.ID)
		require.NoError(t, err)
	}

	h.clock.Advance(pickTime)
	h.waitPicks(d.ID, 5)

	pick := h.snapshot(d.ID).Picks[4]
	assert.Equal(t, 5, pick.Seat)
	assert.Equal(t, models.PickOriginAuto, pick.Origin)
	assert.Equal(t, wanted.ID, pick.PlayerID, "second queued player, not the best ranked %s", best.FullName)

	snap := h.snapshot(d.ID)
	assert.Empty(t, snap.Participants[4].Queue)
	queues, err := h.store.ListQueues(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, queues[5])
}

func TestAutoPickFallsBackToRanking(t *testing.T) {
	h := newHarness(t)
	players := rankedPlayers(12)
	// equal ranks keep pool order
	players[0].Rank, players[1].Rank = 1, 1
	h.pools.Put(testPoolID, players)
	d := h.live(2, 2)

	h.clock.Advance(pickTime)
	h.waitPicks(d.ID, 1)

	pick := h.snapshot(d.ID).Picks[0]
	assert.Equal(t, players[0].ID, pick.PlayerID)
	assert.Equal(t, models.PickOriginAuto, pick.Origin)
	assert.EqualValues(t, 1, h.metrics.honored.Load())
}

func TestAutoPickRespectsRosterSlots(t *testing.T) {
	h := newHarness(t)
	h.pools.Put(testPoolID, []models.Player{
		{ID: uuid.New(), FullName: "qb a", Position: "QB", Rank: 1},
		{ID: uuid.New(), FullName: "qb b", Position: "QB", Rank: 2},
		{ID: uuid.New(), FullName: "qb c", Position: "QB", Rank: 3},
		{ID: uuid.New(), FullName: "rb a", Position: "RB", Rank: 4},
		{ID: uuid.New(), FullName: "rb b", Position: "RB", Rank: 5},
	})
	d := h.live(2, 2, func(r *StartDraftRequest) {
		r.Settings.RosterSlots = []models.RosterSlot{
			{Name: "QB", Eligible: []string{"QB"}, Count: 1},
			{Name: "RB", Eligible: []string{"RB"}, Count: 1},
		}
	})

	h.pickBest(d.ID) // seat 1: qb a
	h.pickBest(d.ID) // seat 2: qb b
	h.clock.Advance(pickTime)
	h.waitPicks(d.ID, 3)

	pick := h.snapshot(d.ID).Picks[2]
	assert.Equal(t, 2, pick.Seat)
	p, _ := h.session(d.ID).pool.Get(pick.PlayerID)
	assert.Equal(t, "rb a", p.FullName)
}

func TestAutoPickExhaustionAbandonsDraft(t *testing.T) {
	h := newHarness(t)
	qb1, qb2 := uuid.New(), uuid.New()
	k1 := uuid.New()
	h.pools.Put(testPoolID, []models.Player{
		{ID: qb1, FullName: "qb 1", Position: "QB", Rank: 1},
		{ID: qb2, FullName: "qb 2", Position: "QB", Rank: 2},
		{ID: k1, FullName: "k 1", Position: "K", Rank: 3},
		{ID: uuid.New(), FullName: "k 2", Position: "K", Rank: 4},
	})
	d := h.live(2, 2, func(r *StartDraftRequest) {
		r.Settings.RosterSlots = []models.RosterSlot{
			{Name: "QB", Eligible: []string{"QB"}, Count: 1},
			{Name: "FLEX", Eligible: []string{"QB", "K"}, Count: 1},
		}
	})

	_, err := h.engine.SubmitPick(h.ctx, d.ID, 1, k1)
	require.NoError(t, err)
	_, err = h.engine.SubmitPick(h.ctx, d.ID, 2, qb1)
	require.NoError(t, err)
	_, err = h.engine.SubmitPick(h.ctx, d.ID, 2, qb2)
	require.NoError(t, err)

	// seat 1 needs a QB and none is left
	h.clock.Advance(pickTime)
	h.waitStatus(d.ID, models.DraftStatusAbandoned)

	e, ok := h.events.last(events.TypeDraftAbandoned)
	require.True(t, ok)
	var payload events.DraftAbandonedPayload
	require.NoError(t, e.Decode(&payload))
	assert.Equal(t, ReasonAutoPickExhausted, payload.Reason)
	assert.Equal(t, 3, payload.PicksMade)
}

func TestAutoPickStoreFailureRetries(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.RetryDelay = 5 * time.Second })
	d := h.live(2, 2)

	h.store.failing.Store(true)
	h.clock.Advance(pickTime)
	require.Eventually(t, func() bool {
		snap := h.snapshot(d.ID)
		return snap.Clock.State == clock.StateRunning && snap.Clock.Remaining == 5*time.Second
	}, eventualWait, eventualTick)
	assert.Empty(t, h.snapshot(d.ID).Picks)

	h.store.failing.Store(false)
	h.clock.Advance(5 * time.Second)
	h.waitPicks(d.ID, 1)
	assert.Equal(t, 1, h.snapshot(d.ID).Picks[0].Seat)
}

func TestAutoPickKeepsQueueAcrossStoreFailure(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.RetryDelay = 5 * time.Second })
	d := h.schedule(2, 2)
	wanted := h.snapshot(d.ID).Available[5]
	_, err := h.engine.EnqueuePreference(h.ctx, d.ID, 1, wanted.ID, nil)
	require.NoError(t, err)
	_, err = h.engine.BeginLive(h.ctx, d.ID)
	require.NoError(t, err)

	h.store.failing.Store(true)
	h.clock.Advance(pickTime)
	require.Eventually(t, func() bool {
		snap := h.snapshot(d.ID)
		return snap.Clock.State == clock.StateRunning && snap.Clock.Remaining == 5*time.Second
	}, eventualWait, eventualTick)
	snap := h.snapshot(d.ID)
	assert.Empty(t, snap.Picks)
	assert.Equal(t, []uuid.UUID{wanted.ID}, snap.Participants[0].Queue)

	h.store.failing.Store(false)
	h.clock.Advance(5 * time.Second)
	h.waitPicks(d.ID, 1)

	pick := h.snapshot(d.ID).Picks[0]
	assert.Equal(t, wanted.ID, pick.PlayerID)
	assert.Equal(t, models.PickOriginAuto, pick.Origin)
	assert.Empty(t, h.snapshot(d.ID).Participants[0].Queue)
	queues, err := h.store.ListQueues(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, queues[1])
}

func TestStaleExpiryIsDiscarded(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	s := h.session(d.ID)

	s.mu.Lock()
	turn := s.turn()
	s.mu.Unlock()

	// the turn resolves manually just before its clock runs out
	h.clock.Advance(pickTime - time.Second)
	h.pickBest(d.ID)

	// a late expiry for the resolved turn arrives afterwards
	s.onExpire(clock.Expiry{Turn: turn, Generation: 1, At: h.clock.Now()})
	h.clock.Advance(time.Second)
	settle()

	assert.Len(t, h.snapshot(d.ID).Picks, 1)
	assert.EqualValues(t, 1, h.metrics.stale.Load())
	assert.Zero(t, h.metrics.honored.Load())
}

func TestManualPickBeatsFiredTimer(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	s := h.session(d.ID)
	best := h.snapshot(d.ID).Available[0]

	// hold the session while the clock fires so the expiry queues behind a manual pick
	s.mu.Lock()
	h.clock.Advance(pickTime)
	require.Eventually(t, func() bool { return s.clock.State() == clock.StateExpired }, eventualWait, eventualTick)
	_, err := s.commitLocked(h.ctx, 1, best.ID, models.PickOriginManual)
	s.mu.Unlock()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.metrics.stale.Load() == 1 }, eventualWait, eventualTick)
	snap := h.snapshot(d.ID)
	require.Len(t, snap.Picks, 1)
	assert.Equal(t, models.PickOriginManual, snap.Picks[0].Origin)
	assert.Equal(t, clock.StateRunning, snap.Clock.State)
}

func TestPauseAfterExpiryHandsTurnToAutoPickOnResume(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	s := h.session(d.ID)

	s.mu.Lock()
	h.clock.Advance(pickTime)
	require.Eventually(t, func() bool { return s.clock.State() == clock.StateExpired }, eventualWait, eventualTick)
	s.mu.Unlock()

	// the pause may land before or after the pending auto-pick; either way it succeeds
	paused, err := h.engine.PauseDraft(h.ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, paused.ClockRemainingMs)

	_, err = h.engine.ResumeDraft(h.ctx, d.ID)
	require.NoError(t, err)
	h.waitPicks(d.ID, 1)
	assert.Equal(t, models.PickOriginAuto, h.snapshot(d.ID).Picks[0].Origin)
}

func TestAutoPickSeatsDraftThemselves(t *testing.T) {
	h := newHarness(t)
	d := h.schedule(3, 3, func(r *StartDraftRequest) {
		for i := range r.Participants {
			r.Participants[i].AutoPick = true
		}
	})

	_, err := h.engine.BeginLive(h.ctx, d.ID)
	require.NoError(t, err)
	h.waitStatus(d.ID, models.DraftStatusComplete)

	snap := h.snapshot(d.ID)
	require.Len(t, snap.Picks, 9)
	for _, p := range snap.Picks {
		assert.Equal(t, models.PickOriginAuto, p.Origin)
	}
}

func TestSetAutoPickShortensCurrentTurn(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2, func(r *StartDraftRequest) { r.Settings.AutoPickDelayMs = 5000 })

	p, err := h.engine.SetAutoPick(h.ctx, d.ID, 1, true)
	require.NoError(t, err)
	assert.True(t, p.AutoPick)

	e, ok := h.events.last(events.TypeTurnChanged)
	require.True(t, ok)
	var turn events.TurnChangedPayload
	require.NoError(t, e.Decode(&turn))
	assert.True(t, turn.AutoPick)
	assert.True(t, h.clock.Now().Add(5*time.Second).Equal(turn.Deadline))

	h.clock.Advance(5 * time.Second)
	h.waitPicks(d.ID, 1)

	// seat 2 keeps the full clock
	snap := h.snapshot(d.ID)
	assert.Equal(t, 2, snap.Turn.Seat)
	assert.Equal(t, pickTime, snap.Clock.Remaining)

	stored, err := h.store.GetDraft(h.ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, stored.Participants[0].AutoPick)
}
