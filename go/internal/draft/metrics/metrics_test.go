package metrics

import (
	"testing"
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	m.RecordPickCommitted(models.PickOriginManual, time.Millisecond)
	m.RecordPickCommitted(models.PickOriginAuto, time.Millisecond)
	m.RecordPickCommitted(models.PickOriginAuto, time.Millisecond)
	m.RecordPickRejected(drafterr.CodeNotYourTurn)
	m.RecordClockExpiry(true)
	m.RecordTransition(models.DraftStatusLive, models.DraftStatusPaused)
	m.RecordEventPublished("websocket", "pick.committed", false, time.Millisecond)
	m.RecordEventDropped("turn.changed")
	m.SetActiveSessions(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.picks.WithLabelValues("manual")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.picks.WithLabelValues("auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("NOT_YOUR_TURN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expiries.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("LIVE", "PAUSED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("websocket", "pick.committed", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("turn.changed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMetrics(reg)
	assert.Error(t, err)
}
