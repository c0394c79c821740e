package broadcast

import (
	"context"
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/metrics"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBuffer      = 1024
	defaultSinkTimeout = 5 * time.Second
	drainTimeout       = 2 * time.Second
)

// Dispatcher queues events from sessions and delivers them, in order, to every sink from a single
// goroutine. Publish never blocks; a full buffer drops the event.
type Dispatcher struct {
	ch          chan events.Event
	sinks       []Broadcaster
	metrics     metrics.Collector
	sinkTimeout time.Duration
}

func NewDispatcher(buffer int, collector metrics.Collector, sinks ...Broadcaster) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &Dispatcher{
		ch:          make(chan events.Event, buffer),
		sinks:       sinks,
		metrics:     collector,
		sinkTimeout: defaultSinkTimeout,
	}
}

// Publish hands the event off without blocking and reports whether it was queued.
func (d *Dispatcher) Publish(event events.Event) bool {
	select {
	case d.ch <- event:
		return true
	default:
		d.metrics.RecordEventDropped(string(event.Type))
		log.Warn().
			Str("draft_id", event.DraftID.String()).
			Str("event_type", string(event.Type)).
			Uint64("sequence", event.Sequence).
			Msg("dispatch buffer full, dropping event")
		return false
	}
}

// Run delivers events until ctx is cancelled, then flushes whatever is still buffered.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Info().Int("sinks", len(d.sinks)).Msg("event dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.drain()
			log.Info().Msg("event dispatcher stopped")
			return
		case event := <-d.ch:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-d.ch:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event events.Event) {
	for _, sink := range d.sinks {
		sctx, cancel := context.WithTimeout(ctx, d.sinkTimeout)
		start := time.Now()
		err := sink.Broadcast(sctx, event)
		cancel()

		d.metrics.RecordEventPublished(sink.Name(), string(event.Type), err == nil, time.Since(start))
		if err != nil {
			log.Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("draft_id", event.DraftID.String()).
				Str("event_type", string(event.Type)).
				Msg("failed to broadcast event")
		}
	}
}
