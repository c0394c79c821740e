package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Broadcast(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) sequences() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.events))
	for i, e := range s.events {
		out[i] = e.Sequence
	}
	return out
}

func event(t *testing.T, draftID uuid.UUID, seq uint64) events.Event {
	t.Helper()
	e, err := events.New(draftID, seq, events.TypeTurnChanged, time.Now(), events.TurnChangedPayload{OverallPick: int(seq)})
	require.NoError(t, err)
	return e
}

func TestDispatcherDeliversInOrderToAllSinks(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("down")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(16, nil, failing, ok)

	draftID := uuid.New()
	for seq := uint64(1); seq <= 5; seq++ {
		require.True(t, d.Publish(event(t, draftID, seq)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(ok.sequences()) == 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, ok.sequences())
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, failing.sequences(), "a failing sink does not stop delivery")
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewPrometheusMetrics(reg)
	require.NoError(t, err)

	d := NewDispatcher(2, m, &recordingSink{name: "s"})
	draftID := uuid.New()

	assert.True(t, d.Publish(event(t, draftID, 1)))
	assert.True(t, d.Publish(event(t, draftID, 2)))
	assert.False(t, d.Publish(event(t, draftID, 3)))

	n, err := testutil.GatherAndCount(reg, "draft_events_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDispatcherFlushesOnShutdown(t *testing.T) {
	sink := &recordingSink{name: "s"}
	d := NewDispatcher(8, nil, sink)
	draftID := uuid.New()
	for seq := uint64(1); seq <= 3; seq++ {
		d.Publish(event(t, draftID, seq))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Len(t, sink.sequences(), 3)
}

func TestJetStreamSubjects(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	draftID := uuid.MustParse("6f1c2f57-3a0e-4d5c-9a51-0c4a3f0e2b11")

	assert.Equal(t, "draft.events.6f1c2f57-3a0e-4d5c-9a51-0c4a3f0e2b11.pick.committed",
		cfg.Subject(draftID, events.TypePickCommitted))
	assert.Equal(t, "draft.events.6f1c2f57-3a0e-4d5c-9a51-0c4a3f0e2b11.>", cfg.DraftFilter(draftID))
}

func TestLogBroadcaster(t *testing.T) {
	var b Broadcaster = LogBroadcaster{}
	assert.Equal(t, "log", b.Name())
	assert.NoError(t, b.Broadcast(context.Background(), event(t, uuid.New(), 1)))
}
