//go:build integration

package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestJetStreamBroadcastAndTail(t *testing.T) {
	ctx := context.Background()

	container, err := tcnats.Run(ctx, "nats:2.10-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Server is ready"),
				wait.ForListeningPort("4222/tcp"),
			).WithDeadline(45*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := DefaultJetStreamConfig()
	cfg.URL = url
	cfg.MaxReconnects = 0

	b, err := NewJetStreamBroadcaster(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	draftID := uuid.New()
	other := uuid.New()
	require.NoError(t, b.Broadcast(ctx, event(t, draftID, 1)))
	require.NoError(t, b.Broadcast(ctx, event(t, other, 1)))
	require.NoError(t, b.Broadcast(ctx, event(t, draftID, 2)))

	var mu sync.Mutex
	var got []events.Event
	tailCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- Tail(tailCtx, cfg, draftID, func(e events.Event) {
			mu.Lock()
			got = append(got, e)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 10*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, uint64(1), got[0].Sequence)
	assert.Equal(t, uint64(2), got[1].Sequence)
	assert.Equal(t, draftID, got[1].DraftID)
}
