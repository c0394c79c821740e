// Package broadcast delivers draft events to observers without blocking the engine.
package broadcast

import (
	"context"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

// Broadcaster is a one-way sink for draft events.
type Broadcaster interface {
	Name() string
	Broadcast(ctx context.Context, event events.Event) error
}

// LogBroadcaster writes every event to the log. Useful when no real sink is configured.
type LogBroadcaster struct{}

func (LogBroadcaster) Name() string { return "log" }

func (LogBroadcaster) Broadcast(_ context.Context, event events.Event) error {
	log.Debug().
		Str("draft_id", event.DraftID.String()).
		Str("event_type", string(event.Type)).
		Uint64("sequence", event.Sequence).
		RawJSON("payload", event.Payload).
		Msg("draft event")
	return nil
}
