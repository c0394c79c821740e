package engine

import (
	"context"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Recover loads every unfinished draft from the store. Live drafts get a fresh clock for the turn
// they were on; paused drafts keep the remaining time persisted at pause. Drafts that fail to load
// are logged and skipped. It returns how many drafts were loaded.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	ids, err := e.store.ListActiveDrafts(ctx)
	if err != nil {
		return 0, wrapStore("list active drafts", err)
	}

	loaded := 0
	for _, id := range ids {
		if _, err := e.session(id); err == nil {
			continue
		}
		logger := log.With().Str("draft_id", id.String()).Logger()

		d, err := e.store.GetDraft(ctx, id)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load draft")
			continue
		}
		picks, err := e.store.ListPicks(ctx, id)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load picks")
			continue
		}
		queues, err := e.store.ListQueues(ctx, id)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load queues")
			continue
		}

		s, err := e.load(ctx, d, picks, queues)
		if err != nil {
			logger.Error().Err(err).Msg("failed to rebuild draft")
			continue
		}
		if err := e.register(s); err != nil {
			logger.Error().Err(err).Msg("failed to register draft")
			continue
		}
		s.rebind()
		loaded++

		logger.Info().
			Str("status", string(d.Status)).
			Int("picks", len(picks)).
			Msg("draft recovered")
	}
	return loaded, nil
}

// rebind restores the turn clock of a recovered session.
func (s *session) rebind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := s.turn()
	duration := s.turnDuration(s.order.Seat(turn))
	switch s.draft.Status {
	case models.DraftStatusLive:
		s.startTurnLocked(s.now())
	case models.DraftStatusPaused:
		remaining := duration
		if s.draft.ClockRemainingMs != nil {
			remaining = min(remaining, msDuration(*s.draft.ClockRemainingMs))
		}
		s.clock.Hold(turn, duration, remaining)
	}
}
