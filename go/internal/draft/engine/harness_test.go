package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/metrics"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/store"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/stretchr/testify/require"
)

const (
	testPoolID   = "test-pool"
	pickTime     = time.Minute
	eventualWait = 2 * time.Second
	eventualTick = 5 * time.Millisecond
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

func (p *recordingPublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *recordingPublisher) types() []events.Type {
	var out []events.Type
	for _, e := range p.all() {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) last(typ events.Type) (events.Event, bool) {
	all := p.all()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Type == typ {
			return all[i], true
		}
	}
	return events.Event{}, false
}

type countingCollector struct {
	metrics.NoOpCollector
	stale   atomic.Int64
	honored atomic.Int64
}

func (c *countingCollector) RecordClockExpiry(stale bool) {
	if stale {
		c.stale.Add(1)
		return
	}
	c.honored.Add(1)
}

// flakyStore fails writes while failing is set.
type flakyStore struct {
	store.Store
	failing atomic.Bool
}

func (s *flakyStore) AppendPick(ctx context.Context, d models.Draft, pick models.DraftPick) error {
	if s.failing.Load() {
		return fmt.Errorf("connection reset")
	}
	return s.Store.AppendPick(ctx, d, pick)
}

func (s *flakyStore) UpdateDraft(ctx context.Context, d models.Draft) error {
	if s.failing.Load() {
		return fmt.Errorf("connection reset")
	}
	return s.Store.UpdateDraft(ctx, d)
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	clock   *clockwork.FakeClock
	store   *flakyStore
	pools   *pool.StaticSource
	events  *recordingPublisher
	metrics *countingCollector
	engine  *Engine
}

func newHarness(t *testing.T, configure ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		ctx:     context.Background(),
		clock:   clockwork.NewFakeClock(),
		store:   &flakyStore{Store: store.NewMemoryStore()},
		pools:   pool.NewStaticSource(),
		events:  &recordingPublisher{},
		metrics: &countingCollector{},
	}
	h.engine = h.newEngine(configure...)
	return h
}

// newEngine builds another engine over the same store, pools and clock.
func (h *harness) newEngine(configure ...func(*Config)) *Engine {
	h.t.Helper()
	cfg := Config{
		Store:     h.store,
		Pools:     h.pools,
		Publisher: h.events,
		Metrics:   h.metrics,
		Clock:     h.clock,
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	e, err := New(cfg)
	require.NoError(h.t, err)
	h.t.Cleanup(e.Shutdown)
	return e
}

// rankedPlayers returns n players ranked 1..n with positions cycling through positions.
func rankedPlayers(n int, positions ...string) []models.Player {
	if len(positions) == 0 {
		positions = []string{"QB", "RB", "WR", "TE"}
	}
	players := make([]models.Player, n)
	for i := range players {
		players[i] = models.Player{
			ID:       uuid.New(),
			FullName: fmt.Sprintf("Player %d", i+1),
			Position: positions[i%len(positions)],
			Rank:     i + 1,
		}
	}
	return players
}

func participants(n int) []ParticipantInput {
	out := make([]ParticipantInput, n)
	for i := range out {
		out[i] = ParticipantInput{UserID: fmt.Sprintf("user-%d", i+1), Name: fmt.Sprintf("Team %d", i+1)}
	}
	return out
}

func (h *harness) request(teams, rounds int) StartDraftRequest {
	return StartDraftRequest{
		Name: "test draft",
		Settings: models.DraftSettings{
			Rounds:        rounds,
			TimePerPickMs: pickTime.Milliseconds(),
			PoolID:        testPoolID,
		},
		Participants: participants(teams),
	}
}

// schedule creates a draft with a pool a little larger than the board.
func (h *harness) schedule(teams, rounds int, edit ...func(*StartDraftRequest)) models.Draft {
	h.t.Helper()
	if _, err := h.pools.LoadPool(h.ctx, testPoolID); err != nil {
		h.pools.Put(testPoolID, rankedPlayers(teams*rounds+10))
	}
	req := h.request(teams, rounds)
	for _, fn := range edit {
		fn(&req)
	}
	d, err := h.engine.StartDraft(h.ctx, req)
	require.NoError(h.t, err)
	return d
}

func (h *harness) live(teams, rounds int, edit ...func(*StartDraftRequest)) models.Draft {
	h.t.Helper()
	d := h.schedule(teams, rounds, edit...)
	d, err := h.engine.BeginLive(h.ctx, d.ID)
	require.NoError(h.t, err)
	return d
}

func (h *harness) session(id uuid.UUID) *session {
	h.t.Helper()
	s, err := h.engine.session(id)
	require.NoError(h.t, err)
	return s
}

func (h *harness) snapshot(id uuid.UUID) Snapshot {
	h.t.Helper()
	snap, err := h.engine.GetSnapshot(h.ctx, id)
	require.NoError(h.t, err)
	return snap
}

// pickBest submits the best available player for whoever is on the clock.
func (h *harness) pickBest(id uuid.UUID) models.DraftPick {
	h.t.Helper()
	snap := h.snapshot(id)
	require.NotNil(h.t, snap.Turn)
	require.NotEmpty(h.t, snap.Available)
	pick, err := h.engine.SubmitPick(h.ctx, id, snap.Turn.Seat, snap.Available[0].ID)
	require.NoError(h.t, err)
	return pick
}

func (h *harness) waitPicks(id uuid.UUID, n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return len(h.snapshot(id).Picks) >= n
	}, eventualWait, eventualTick, "expected %d picks", n)
}

func (h *harness) waitStatus(id uuid.UUID, status models.DraftStatus) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return h.snapshot(id).Draft.Status == status
	}, eventualWait, eventualTick, "expected status %s", status)
}

// settle gives timer goroutines a chance to run after the fake clock moves.
func settle() {
	time.Sleep(30 * time.Millisecond)
}
