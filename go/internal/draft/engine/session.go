package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/clock"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/queue"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/roster"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/sequence"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Abandon reasons recorded on draft.abandoned.
const (
	ReasonCancelled         = "cancelled"
	ReasonAutoPickExhausted = "auto_pick_exhausted"
)

// session is one draft. Every field below mu is guarded by it.
type session struct {
	id     uuid.UUID
	engine *Engine
	log    zerolog.Logger

	mu       sync.Mutex
	draft    models.Draft
	order    sequence.Order
	pool     *pool.Pool
	template *roster.Template
	picks    []models.DraftPick
	taken    map[uuid.UUID]int // player -> overall pick
	rosters  map[int][]string  // seat -> drafted positions
	queues   *queue.Manager
	clock    *clock.Clock
	seq      uint64
}

func newSession(e *Engine, d models.Draft, order sequence.Order, p *pool.Pool, template *roster.Template,
	picks []models.DraftPick, queues map[int][]uuid.UUID) (*session, error) {
	s := &session{
		id:       d.ID,
		engine:   e,
		log:      log.With().Str("draft_id", d.ID.String()).Logger(),
		draft:    d.Clone(),
		order:    order,
		pool:     p,
		template: template,
		taken:    make(map[uuid.UUID]int),
		rosters:  make(map[int][]string),
		queues:   queue.NewManager(),
	}
	s.clock = clock.New(e.clock, s.onExpire)

	for i, pick := range picks {
		if pick.OverallPick != i+1 {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "pick log has a gap",
				map[string]string{"expected": strconv.Itoa(i + 1), "overall_pick": strconv.Itoa(pick.OverallPick)})
		}
		player, ok := p.Get(pick.PlayerID)
		if !ok {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "drafted player missing from pool",
				map[string]string{"player_id": pick.PlayerID.String()})
		}
		s.picks = append(s.picks, pick)
		s.taken[pick.PlayerID] = pick.OverallPick
		s.rosters[pick.Seat] = append(s.rosters[pick.Seat], player.Position)
	}
	s.draft.PickCount = len(s.picks)

	for seat, ids := range queues {
		s.queues.Replace(seat, ids)
	}
	return s, nil
}

func (s *session) stop() {
	s.clock.Reset()
}

func (s *session) beginLive(ctx context.Context) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status != models.DraftStatusScheduled {
		return models.Draft{}, s.invalidState("begin live")
	}

	now := s.now()
	next := s.draft.Clone()
	next.Status = models.DraftStatusLive
	next.StartedAt = &now
	next.UpdatedAt = now
	if err := s.save(ctx, next); err != nil {
		return models.Draft{}, err
	}
	s.transition(next)

	s.emit(events.TypeDraftStarted, events.DraftStartedPayload{
		StartedAt:   now,
		Teams:       s.order.Teams(),
		TotalRounds: s.order.Rounds(),
		TotalPicks:  s.order.TotalPicks(),
	})
	s.startTurnLocked(now)
	s.log.Info().Msg("draft is live")
	return s.draft.Clone(), nil
}

func (s *session) pause(ctx context.Context) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status != models.DraftStatusLive {
		return models.Draft{}, s.invalidState("pause")
	}

	turn := s.turn()
	if !s.clock.Pause() {
		// The clock already ran out and its expiry is waiting for this lock. Freeze it at zero so
		// resuming hands the turn straight to auto-pick.
		s.clock.Hold(turn, s.turnDuration(s.order.Seat(turn)), 0)
	}
	remaining := s.clock.Remaining()

	now := s.now()
	ms := remaining.Milliseconds()
	next := s.draft.Clone()
	next.Status = models.DraftStatusPaused
	next.ClockRemainingMs = &ms
	next.UpdatedAt = now
	if err := s.save(ctx, next); err != nil {
		s.clock.Resume()
		return models.Draft{}, err
	}
	s.transition(next)

	s.emit(events.TypeDraftPaused, events.DraftPausedPayload{
		PausedAt:    now,
		OverallPick: turn,
		RemainingMs: ms,
	})
	s.log.Info().Int("overall_pick", turn).Dur("remaining", remaining).Msg("draft paused")
	return s.draft.Clone(), nil
}

func (s *session) resume(ctx context.Context) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status != models.DraftStatusPaused {
		return models.Draft{}, s.invalidState("resume")
	}

	now := s.now()
	next := s.draft.Clone()
	next.Status = models.DraftStatusLive
	next.ClockRemainingMs = nil
	next.UpdatedAt = now
	if err := s.save(ctx, next); err != nil {
		return models.Draft{}, err
	}
	s.transition(next)

	turn := s.turn()
	var deadline time.Time
	if remaining := s.clock.Remaining(); s.clock.Resume() {
		deadline = now.Add(remaining)
	} else {
		deadline = s.clock.Start(turn, s.turnDuration(s.order.Seat(turn)))
	}

	s.emit(events.TypeDraftResumed, events.DraftResumedPayload{
		ResumedAt:   now,
		OverallPick: turn,
		Deadline:    deadline,
	})
	s.emitTurnChanged(now, deadline)
	s.log.Info().Int("overall_pick", turn).Time("deadline", deadline).Msg("draft resumed")
	return s.draft.Clone(), nil
}

func (s *session) abandon(ctx context.Context, reason string) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abandonLocked(ctx, reason)
}

func (s *session) abandonLocked(ctx context.Context, reason string) (models.Draft, error) {
	if s.draft.Status != models.DraftStatusLive && s.draft.Status != models.DraftStatusPaused {
		return models.Draft{}, s.invalidState("abandon")
	}

	now := s.now()
	next := s.draft.Clone()
	next.Status = models.DraftStatusAbandoned
	next.ClockRemainingMs = nil
	next.UpdatedAt = now
	if err := s.save(ctx, next); err != nil {
		return models.Draft{}, err
	}
	s.clock.Reset()
	s.transition(next)

	s.emit(events.TypeDraftAbandoned, events.DraftAbandonedPayload{
		AbandonedAt: now,
		Reason:      reason,
		PicksMade:   len(s.picks),
	})
	s.log.Info().Str("reason", reason).Int("picks_made", len(s.picks)).Msg("draft abandoned")
	return s.draft.Clone(), nil
}

func (s *session) setAutoPick(ctx context.Context, seat int, enabled bool) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status.Terminal() {
		return models.Participant{}, s.invalidState("set auto-pick")
	}
	if err := s.checkSeat(seat); err != nil {
		return models.Participant{}, err
	}

	next := s.draft.Clone()
	var updated models.Participant
	for i := range next.Participants {
		if next.Participants[i].Seat == seat {
			next.Participants[i].AutoPick = enabled
			updated = next.Participants[i]
		}
	}
	next.UpdatedAt = s.now()
	if err := s.save(ctx, next); err != nil {
		return models.Participant{}, err
	}
	s.draft = next

	// A seat switching to auto-pick while on the clock should not wait out the full turn.
	if enabled && s.draft.Status == models.DraftStatusLive && s.order.Seat(s.turn()) == seat {
		delay := s.draft.Settings.AutoPickDelay()
		if s.clock.State() == clock.StateRunning && s.clock.Remaining() > delay {
			deadline := s.clock.Start(s.turn(), delay)
			s.emitTurnChanged(s.now(), deadline)
		}
	}
	s.log.Info().Int("seat", seat).Bool("enabled", enabled).Msg("auto-pick updated")
	return updated, nil
}

func (s *session) enqueue(ctx context.Context, seat int, playerID uuid.UUID, position *int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status.Terminal() {
		return nil, s.invalidState("enqueue preference")
	}
	if err := s.checkSeat(seat); err != nil {
		return nil, err
	}
	if !s.pool.Contains(playerID) {
		return nil, drafterr.WithMetadata(drafterr.CodeIneligiblePlayer, "player is not in the draft pool",
			map[string]string{"player_id": playerID.String(), "reason": "not_in_pool"})
	}
	if overall, ok := s.taken[playerID]; ok {
		return nil, s.alreadyTaken(playerID, overall)
	}

	prev := s.queues.List(seat)
	if err := s.queues.Enqueue(seat, playerID, position); err != nil {
		return nil, err
	}
	if err := s.persistQueue(ctx, seat); err != nil {
		s.queues.Replace(seat, prev)
		return nil, err
	}
	return s.queues.List(seat), nil
}

func (s *session) removePreference(ctx context.Context, seat int, playerID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Status.Terminal() {
		return nil, s.invalidState("remove preference")
	}
	if err := s.checkSeat(seat); err != nil {
		return nil, err
	}

	prev := s.queues.List(seat)
	if !s.queues.Remove(seat, playerID) {
		return prev, nil
	}
	if err := s.persistQueue(ctx, seat); err != nil {
		s.queues.Replace(seat, prev)
		return nil, err
	}
	return s.queues.List(seat), nil
}

// startTurnLocked binds the clock to the next overall pick and announces it.
func (s *session) startTurnLocked(now time.Time) {
	turn := s.turn()
	deadline := s.clock.Start(turn, s.turnDuration(s.order.Seat(turn)))
	s.emitTurnChanged(now, deadline)
}

func (s *session) emitTurnChanged(now, deadline time.Time) {
	slot := s.order.Slot(s.turn())
	participant, _ := s.draft.ParticipantForSeat(slot.Seat)
	s.emit(events.TypeTurnChanged, events.TurnChangedPayload{
		Seat:          slot.Seat,
		ParticipantID: participant.ID.String(),
		Round:         slot.Round,
		Pick:          slot.Pick,
		OverallPick:   slot.OverallPick,
		StartedAt:     now,
		Deadline:      deadline.UTC(),
		TimePerPickMs: s.draft.Settings.TimePerPickMs,
		AutoPick:      participant.AutoPick,
	})
}

// turnDuration is the clock a seat gets: the auto-pick delay when the seat drafts automatically.
func (s *session) turnDuration(seat int) time.Duration {
	if p, ok := s.draft.ParticipantForSeat(seat); ok && p.AutoPick {
		return s.draft.Settings.AutoPickDelay()
	}
	return s.draft.Settings.TimePerPick()
}

// turn is the overall pick number on the clock.
func (s *session) turn() int {
	return len(s.picks) + 1
}

func (s *session) emit(typ events.Type, payload any) {
	s.seq++
	event, err := events.New(s.draft.ID, s.seq, typ, s.now(), payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", string(typ)).Msg("failed to build event")
		return
	}
	s.engine.publisher.Publish(event)
}

func (s *session) transition(next models.Draft) {
	from := s.draft.Status
	s.draft = next
	if from != next.Status {
		s.engine.metrics.RecordTransition(from, next.Status)
		if next.Status.Terminal() {
			s.engine.metrics.SetActiveSessions(int(s.engine.active.Add(-1)))
		}
	}
}

func (s *session) save(ctx context.Context, next models.Draft) error {
	ctx, cancel := context.WithTimeout(ctx, s.engine.commitTimeout)
	defer cancel()
	if err := s.engine.store.UpdateDraft(ctx, next); err != nil {
		return wrapStore("update draft", err)
	}
	return nil
}

func (s *session) persistQueue(ctx context.Context, seat int) error {
	ctx, cancel := context.WithTimeout(ctx, s.engine.commitTimeout)
	defer cancel()
	if err := s.engine.store.SaveQueue(ctx, s.draft.ID, seat, s.queues.List(seat)); err != nil {
		return wrapStore("save queue", err)
	}
	return nil
}

func (s *session) now() time.Time {
	return s.engine.clock.Now().UTC()
}

func (s *session) checkSeat(seat int) error {
	if _, ok := s.draft.ParticipantForSeat(seat); !ok {
		return drafterr.WithMetadata(drafterr.CodeInvalidArgument, "no participant in seat",
			map[string]string{"seat": strconv.Itoa(seat)})
	}
	return nil
}

func (s *session) invalidState(op string) error {
	return drafterr.WithMetadata(drafterr.CodeInvalidState, "cannot "+op+" while draft is "+string(s.draft.Status),
		map[string]string{"state": string(s.draft.Status)})
}

func (s *session) alreadyTaken(playerID uuid.UUID, overall int) error {
	return drafterr.WithMetadata(drafterr.CodePlayerAlreadyTaken, "player already drafted",
		map[string]string{"player_id": playerID.String(), "overall_pick": strconv.Itoa(overall)})
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
