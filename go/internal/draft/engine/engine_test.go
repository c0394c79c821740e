package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/clock"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestStartDraftValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*StartDraftRequest)
		code  drafterr.Code
		field string
	}{
		{
			name: "single participant",
			edit: func(r *StartDraftRequest) { r.Participants = participants(1) },
			code: drafterr.CodeConfiguration,
		},
		{
			name: "no rounds",
			edit: func(r *StartDraftRequest) { r.Settings.Rounds = 0 },
			code: drafterr.CodeConfiguration,
		},
		{
			name:  "no pick time",
			edit:  func(r *StartDraftRequest) { r.Settings.TimePerPickMs = 0 },
			code:  drafterr.CodeConfiguration,
			field: "time_per_pick_ms",
		},
		{
			name: "negative auto-pick delay",
			edit: func(r *StartDraftRequest) { r.Settings.AutoPickDelayMs = -1 },
			code: drafterr.CodeConfiguration,
		},
		{
			name:  "duplicate participant",
			edit:  func(r *StartDraftRequest) { r.Participants[1].UserID = r.Participants[0].UserID },
			code:  drafterr.CodeConfiguration,
			field: "user_id",
		},
		{
			name: "seat out of range",
			edit: func(r *StartDraftRequest) {
				for i := range r.Participants {
					r.Participants[i].Seat = i + 2
				}
			},
			code:  drafterr.CodeConfiguration,
			field: "seat",
		},
		{
			name:  "pool smaller than board",
			edit:  func(r *StartDraftRequest) { r.Settings.Rounds = 50 },
			code:  drafterr.CodeConfiguration,
			field: "pool_size",
		},
		{
			name: "roster smaller than rounds",
			edit: func(r *StartDraftRequest) {
				r.Settings.RosterSlots = []models.RosterSlot{{Name: "QB", Eligible: []string{"QB"}, Count: 1}}
			},
			code:  drafterr.CodeConfiguration,
			field: "slots",
		},
		{
			name: "dedicated slots exceed supply",
			edit: func(r *StartDraftRequest) {
				r.Settings.Rounds = 2
				r.Settings.RosterSlots = []models.RosterSlot{{Name: "K", Eligible: []string{"K"}, Count: 2}}
			},
			code:  drafterr.CodeConfiguration,
			field: "position",
		},
		{
			name: "unknown preset",
			edit: func(r *StartDraftRequest) { r.Preset = "missing" },
			code: drafterr.CodeConfiguration,
		},
		{
			name: "unknown pool",
			edit: func(r *StartDraftRequest) { r.Settings.PoolID = "nope" },
			code: drafterr.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.pools.Put(testPoolID, rankedPlayers(30))

			req := h.request(4, 3)
			tt.edit(&req)
			_, err := h.engine.StartDraft(h.ctx, req)
			require.Error(t, err)
			assert.Equal(t, tt.code, drafterr.CodeOf(err))
			if tt.field != "" {
				assert.Contains(t, drafterr.MetadataOf(err), tt.field)
			}
			assert.Empty(t, h.engine.Drafts(), "rejected drafts are not registered")
		})
	}
}

func TestStartDraftAssignsSeatsAndPersists(t *testing.T) {
	h := newHarness(t)
	d := h.schedule(3, 2)

	assert.Equal(t, models.DraftStatusScheduled, d.Status)
	require.Len(t, d.Participants, 3)
	for i, p := range d.Participants {
		assert.Equal(t, i+1, p.Seat)
		assert.NotEqual(t, uuid.Nil, p.ID)
	}

	stored, err := h.store.GetDraft(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, stored)
}

func TestStartDraftPresetAndFastMode(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Presets = map[string]models.DraftSettings{
			"standard": {Rounds: 2, TimePerPickMs: 90_000, PoolID: "preset-pool", ThirdRoundReversal: true},
		}
		c.FastModePickTime = 5 * time.Second
	})
	h.pools.Put(testPoolID, rankedPlayers(20))

	d, err := h.engine.StartDraft(h.ctx, StartDraftRequest{
		Preset:       "standard",
		Settings:     models.DraftSettings{PoolID: testPoolID},
		Participants: participants(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Settings.Rounds)
	assert.True(t, d.Settings.ThirdRoundReversal)
	assert.Equal(t, testPoolID, d.Settings.PoolID)
	assert.Equal(t, int64(5000), d.Settings.TimePerPickMs)
}

func TestUnknownDraft(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.SubmitPick(h.ctx, uuid.New(), 1, uuid.New())
	assert.ErrorIs(t, err, drafterr.ErrNotFound)
	_, err = h.engine.GetSnapshot(h.ctx, uuid.New())
	assert.ErrorIs(t, err, drafterr.ErrNotFound)
}

func TestCommandsRejectedAfterShutdown(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	available := h.snapshot(d.ID).Available

	h.engine.Shutdown()

	_, err := h.engine.SubmitPick(h.ctx, d.ID, 1, available[0].ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)
	_, err = h.engine.ResumeDraft(h.ctx, d.ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)
	_, err = h.engine.GetSnapshot(h.ctx, d.ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)

	req := h.request(2, 2)
	req.ID = uuid.New()
	_, err = h.engine.StartDraft(h.ctx, req)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)
	_, err = h.store.GetDraft(h.ctx, req.ID)
	assert.ErrorIs(t, err, drafterr.ErrNotFound, "nothing persisted after shutdown")

	picks, err := h.store.ListPicks(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, picks)
}

func TestLifecycleTransitions(t *testing.T) {
	h := newHarness(t)
	d := h.schedule(2, 2)

	_, err := h.engine.PauseDraft(h.ctx, d.ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)
	_, err = h.engine.AbandonDraft(h.ctx, d.ID, "")
	assert.ErrorIs(t, err, drafterr.ErrInvalidState, "scheduled drafts cannot be abandoned")

	d, err = h.engine.BeginLive(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusLive, d.Status)
	require.NotNil(t, d.StartedAt)

	_, err = h.engine.BeginLive(h.ctx, d.ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)
	_, err = h.engine.ResumeDraft(h.ctx, d.ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)

	d, err = h.engine.PauseDraft(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaused, d.Status)
	_, err = h.engine.PauseDraft(h.ctx, d.ID)
	assert.ErrorIs(t, err, drafterr.ErrInvalidState)

	d, err = h.engine.ResumeDraft(h.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusLive, d.Status)

	assert.Equal(t, []events.Type{
		events.TypeDraftStarted,
		events.TypeTurnChanged,
		events.TypeDraftPaused,
		events.TypeDraftResumed,
		events.TypeTurnChanged,
	}, h.events.types())
}

func TestBeginLiveStartsFirstTurn(t *testing.T) {
	h := newHarness(t)
	d := h.live(4, 2)

	snap := h.snapshot(d.ID)
	require.NotNil(t, snap.Turn)
	assert.Equal(t, 1, snap.Turn.Seat)
	assert.Equal(t, 1, snap.Turn.OverallPick)
	assert.Equal(t, clock.StateRunning, snap.Clock.State)
	assert.Equal(t, pickTime, snap.Clock.Remaining)

	e, ok := h.events.last(events.TypeTurnChanged)
	require.True(t, ok)
	var turn events.TurnChangedPayload
	require.NoError(t, e.Decode(&turn))
	assert.Equal(t, 1, turn.Seat)
	assert.True(t, h.clock.Now().Add(pickTime).Equal(turn.Deadline))
	assert.Equal(t, d.Participants[0].ID.String(), turn.ParticipantID)
}

func TestPauseResumeKeepsRemainingTime(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)

	h.clock.Advance(20 * time.Second)
	d, err := h.engine.PauseDraft(h.ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, d.ClockRemainingMs)
	assert.Equal(t, int64(40_000), *d.ClockRemainingMs)

	stored, err := h.store.GetDraft(h.ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ClockRemainingMs)
	assert.Equal(t, int64(40_000), *stored.ClockRemainingMs)

	paused, ok := h.events.last(events.TypeDraftPaused)
	require.True(t, ok)
	var payload events.DraftPausedPayload
	require.NoError(t, paused.Decode(&payload))
	assert.Equal(t, int64(40_000), payload.RemainingMs)

	// wall time spent paused is not charged to the turn
	h.clock.Advance(10 * time.Minute)
	settle()
	assert.Empty(t, h.snapshot(d.ID).Picks)
	assert.Equal(t, 40*time.Second, h.snapshot(d.ID).Clock.Remaining)

	_, err = h.engine.ResumeDraft(h.ctx, d.ID)
	require.NoError(t, err)
	snap := h.snapshot(d.ID)
	require.NotNil(t, snap.Clock.Deadline)
	assert.True(t, h.clock.Now().Add(40*time.Second).Equal(*snap.Clock.Deadline))

	h.clock.Advance(39 * time.Second)
	settle()
	assert.Empty(t, h.snapshot(d.ID).Picks)

	h.clock.Advance(time.Second)
	h.waitPicks(d.ID, 1)
	assert.Equal(t, models.PickOriginAuto, h.snapshot(d.ID).Picks[0].Origin)
}

func TestPauseStoreFailureKeepsClockRunning(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)

	h.store.failing.Store(true)
	_, err := h.engine.PauseDraft(h.ctx, d.ID)
	require.Error(t, err)
	h.store.failing.Store(false)

	snap := h.snapshot(d.ID)
	assert.Equal(t, models.DraftStatusLive, snap.Draft.Status)
	assert.Equal(t, clock.StateRunning, snap.Clock.State)
}

func TestAbandonStopsTheClock(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	h.pickBest(d.ID)

	d, err := h.engine.AbandonDraft(h.ctx, d.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusAbandoned, d.Status)

	h.clock.Advance(time.Hour)
	settle()
	snap := h.snapshot(d.ID)
	assert.Len(t, snap.Picks, 1)
	assert.Equal(t, clock.StateIdle, snap.Clock.State)
	assert.Nil(t, snap.Turn)

	e, ok := h.events.last(events.TypeDraftAbandoned)
	require.True(t, ok)
	var payload events.DraftAbandonedPayload
	require.NoError(t, e.Decode(&payload))
	assert.Equal(t, ReasonCancelled, payload.Reason)
	assert.Equal(t, 1, payload.PicksMade)

	for name, call := range map[string]func() error{
		"submit": func() error {
			_, err := h.engine.SubmitPick(h.ctx, d.ID, 2, snap.Available[0].ID)
			return err
		},
		"pause":  func() error { _, err := h.engine.PauseDraft(h.ctx, d.ID); return err },
		"resume": func() error { _, err := h.engine.ResumeDraft(h.ctx, d.ID); return err },
		"enqueue": func() error {
			_, err := h.engine.EnqueuePreference(h.ctx, d.ID, 1, snap.Available[0].ID, nil)
			return err
		},
		"abandon": func() error { _, err := h.engine.AbandonDraft(h.ctx, d.ID, ""); return err },
	} {
		assert.ErrorIs(t, call(), drafterr.ErrInvalidState, name)
	}
}

func TestEventSequenceIsContiguous(t *testing.T) {
	h := newHarness(t)
	d := h.live(2, 2)
	for range 4 {
		h.pickBest(d.ID)
	}

	all := h.events.all()
	require.NotEmpty(t, all)
	for i, e := range all {
		assert.Equal(t, uint64(i+1), e.Sequence)
		assert.Equal(t, d.ID, e.DraftID)
	}
	assert.Equal(t, events.TypeDraftCompleted, all[len(all)-1].Type)
}
