package engine

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/clock"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"go.opentelemetry.io/otel/attribute"
)

// AutoPickStrategy chooses the fallback player once a seat's queue has nothing usable.
type AutoPickStrategy interface {
	Choose(p *pool.Pool, usable func(models.Player) bool) (models.Player, bool)
}

// RankingStrategy takes the best ranked usable player, ties in pool order.
type RankingStrategy struct{}

func (RankingStrategy) Choose(p *pool.Pool, usable func(models.Player) bool) (models.Player, bool) {
	return p.BestAvailable(usable)
}

// onExpire runs on the clock goroutine when a turn runs out of time.
func (s *session) onExpire(e clock.Expiry) {
	ctx, span := startSpan(context.Background(), "draft.auto_pick", s.id, attribute.Int("overall_pick", e.Turn))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status != models.DraftStatusLive || e.Turn != s.turn() || !s.clock.Current(e) {
		s.engine.metrics.RecordClockExpiry(true)
		s.log.Debug().
			Err(drafterr.WithMetadata(drafterr.CodeStaleTimer, "expiry no longer bound to the active turn",
				map[string]string{"turn": strconv.Itoa(e.Turn), "state": string(s.draft.Status)})).
			Uint64("generation", e.Generation).
			Msg("discarding stale clock expiry")
		return
	}
	s.engine.metrics.RecordClockExpiry(false)

	err := s.autoPickLocked(ctx)
	if err == nil {
		return
	}
	_ = endSpan(span, err)

	if errors.Is(err, drafterr.ErrConfiguration) {
		s.log.Error().Err(err).Int("overall_pick", e.Turn).Msg("auto-pick found no eligible player")
		if _, abandonErr := s.abandonLocked(ctx, ReasonAutoPickExhausted); abandonErr != nil {
			s.log.Error().Err(abandonErr).Msg("failed to abandon exhausted draft")
			s.clock.Start(e.Turn, s.engine.retryDelay)
		}
		return
	}

	s.log.Error().Err(err).
		Int("overall_pick", e.Turn).
		Dur("retry_in", s.engine.retryDelay).
		Msg("auto-pick failed, retrying")
	s.clock.Start(e.Turn, s.engine.retryDelay)
}

// autoPickLocked drafts for the seat on the clock: its queue first, then the strategy's choice.
// Every attempt goes through commitLocked. Attempts are bounded by the pool size.
func (s *session) autoPickLocked(ctx context.Context) error {
	seat := s.order.Seat(s.turn())
	usable := func(p models.Player) bool { return s.usable(seat, p) }

	// A store failure must leave the queue as it was so the retry still honors it.
	prev := s.queues.List(seat)
	next, ok := s.queues.DequeueNext(seat, func(id uuid.UUID) bool {
		p, found := s.pool.Get(id)
		return found && usable(p)
	})
	if ok {
		_, err := s.commitLocked(ctx, seat, next, models.PickOriginAuto)
		if err != nil && !fallsThrough(err) {
			s.queues.Replace(seat, prev)
			return err
		}
		s.savePrunedQueue(ctx, seat, len(prev))
		if err == nil {
			return nil
		}
		s.log.Warn().Err(err).Str("player_id", next.String()).Msg("queued player rejected, falling back to ranking")
	} else {
		s.savePrunedQueue(ctx, seat, len(prev))
	}

	tried := make(map[uuid.UUID]bool)
	for range s.pool.Len() {
		player, ok := s.engine.strategy.Choose(s.pool, func(p models.Player) bool {
			return !tried[p.ID] && usable(p)
		})
		if !ok {
			break
		}
		_, err := s.commitLocked(ctx, seat, player.ID, models.PickOriginAuto)
		if err == nil || !fallsThrough(err) {
			return err
		}
		tried[player.ID] = true
	}

	return drafterr.WithMetadata(drafterr.CodeConfiguration, "no eligible player left for auto-pick",
		map[string]string{"seat": strconv.Itoa(seat), "overall_pick": strconv.Itoa(s.turn())})
}

// savePrunedQueue persists the seat's queue when auto-pick shortened it.
func (s *session) savePrunedQueue(ctx context.Context, seat, before int) {
	if s.queues.Len(seat) == before {
		return
	}
	if err := s.persistQueue(ctx, seat); err != nil {
		s.log.Warn().Err(err).Int("seat", seat).Msg("failed to persist pruned queue")
	}
}

func fallsThrough(err error) bool {
	return errors.Is(err, drafterr.ErrPlayerAlreadyTaken) || errors.Is(err, drafterr.ErrIneligiblePlayer)
}
