package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndDecode(t *testing.T) {
	draftID := uuid.New()
	at := time.Date(2025, 9, 1, 20, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	deadline := at.Add(90 * time.Second)

	e, err := New(draftID, 3, TypeTurnChanged, at, TurnChangedPayload{Seat: 12, OverallPick: 13, Deadline: deadline})
	require.NoError(t, err)

	assert.Equal(t, draftID, e.DraftID)
	assert.Equal(t, uint64(3), e.Sequence)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.JSONEq(t, `12`, string(mustField(t, e.Payload, "seat")))

	var p TurnChangedPayload
	require.NoError(t, e.Decode(&p))
	assert.Equal(t, 13, p.OverallPick)
	assert.True(t, deadline.Equal(p.Deadline))
}

func TestNewRejectsUnmarshalablePayload(t *testing.T) {
	_, err := New(uuid.New(), 1, TypeDraftPaused, time.Now(), map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func mustField(t *testing.T, raw []byte, key string) []byte {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	v, ok := m[key]
	require.True(t, ok, "missing %s", key)
	return v
}
