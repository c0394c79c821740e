package engine

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

func (s *session) submitPick(ctx context.Context, seat int, playerID uuid.UUID) (models.DraftPick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pick, err := s.commitLocked(ctx, seat, playerID, models.PickOriginManual)
	if err != nil {
		s.recordRejection(err)
		return models.DraftPick{}, err
	}
	return pick, nil
}

// commitLocked is the only path that creates a pick, for manual submissions and auto-picks alike.
// Validation runs in a fixed order and nothing changes unless the durable append succeeds.
func (s *session) commitLocked(ctx context.Context, seat int, playerID uuid.UUID, origin models.PickOrigin) (models.DraftPick, error) {
	started := s.engine.clock.Now()

	if s.draft.Status != models.DraftStatusLive {
		return models.DraftPick{}, s.invalidState("pick")
	}
	overall := s.turn()
	if expected := s.order.Seat(overall); seat != expected {
		return models.DraftPick{}, drafterr.WithMetadata(drafterr.CodeNotYourTurn, "seat is not on the clock",
			map[string]string{
				"seat":          strconv.Itoa(seat),
				"expected_seat": strconv.Itoa(expected),
				"overall_pick":  strconv.Itoa(overall),
			})
	}
	if prior, ok := s.taken[playerID]; ok {
		return models.DraftPick{}, s.alreadyTaken(playerID, prior)
	}
	player, err := s.eligible(seat, playerID)
	if err != nil {
		return models.DraftPick{}, err
	}

	now := s.now()
	slot := s.order.Slot(overall)
	participant, _ := s.draft.ParticipantForSeat(seat)
	pick := models.DraftPick{
		ID:            uuid.New(),
		DraftID:       s.draft.ID,
		Round:         slot.Round,
		Pick:          slot.Pick,
		OverallPick:   overall,
		Seat:          seat,
		ParticipantID: participant.ID,
		PlayerID:      playerID,
		Origin:        origin,
		PickedAt:      now,
	}

	next := s.draft.Clone()
	next.PickCount = overall
	next.ClockRemainingMs = nil
	next.UpdatedAt = now
	complete := overall == s.order.TotalPicks()
	if complete {
		next.Status = models.DraftStatusComplete
		next.CompletedAt = &now
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.engine.commitTimeout)
	err = s.engine.store.AppendPick(storeCtx, next, pick)
	cancel()
	if err != nil {
		return models.DraftPick{}, wrapStore("append pick", err)
	}

	s.picks = append(s.picks, pick)
	s.taken[playerID] = overall
	s.rosters[seat] = append(s.rosters[seat], player.Position)
	s.transition(next)
	s.engine.metrics.RecordPickCommitted(origin, s.engine.clock.Since(started))

	s.emit(events.TypePickCommitted, events.PickCommittedPayload{
		PickID:        pick.ID.String(),
		Seat:          seat,
		ParticipantID: participant.ID.String(),
		PlayerID:      playerID.String(),
		PlayerName:    player.FullName,
		Position:      player.Position,
		Round:         pick.Round,
		Pick:          pick.Pick,
		OverallPick:   overall,
		Origin:        string(origin),
		MadeAt:        now,
	})
	s.log.Info().
		Int("overall_pick", overall).
		Int("seat", seat).
		Str("player_id", playerID.String()).
		Str("origin", string(origin)).
		Msg("pick committed")

	if complete {
		s.clock.Reset()
		var duration string
		if s.draft.StartedAt != nil {
			duration = now.Sub(*s.draft.StartedAt).String()
		}
		s.emit(events.TypeDraftCompleted, events.DraftCompletedPayload{
			CompletedAt: now,
			Duration:    duration,
			TotalPicks:  overall,
		})
		s.log.Info().Int("total_picks", overall).Msg("draft complete")
		return pick, nil
	}

	s.startTurnLocked(now)
	return pick, nil
}

// eligible returns the pool entry for playerID if it fits one of the seat's open roster slots.
func (s *session) eligible(seat int, playerID uuid.UUID) (models.Player, error) {
	player, ok := s.pool.Get(playerID)
	if !ok {
		return models.Player{}, drafterr.WithMetadata(drafterr.CodeIneligiblePlayer, "player is not in the draft pool",
			map[string]string{"player_id": playerID.String(), "reason": "not_in_pool"})
	}
	if !s.template.CanAdd(s.rosters[seat], player.Position) {
		return models.Player{}, drafterr.WithMetadata(drafterr.CodeIneligiblePlayer, "no open roster slot for position",
			map[string]string{
				"player_id": playerID.String(),
				"position":  player.Position,
				"seat":      strconv.Itoa(seat),
				"reason":    "no_open_slot",
			})
	}
	return player, nil
}

// usable reports whether seat could draft player right now.
func (s *session) usable(seat int, player models.Player) bool {
	if _, taken := s.taken[player.ID]; taken {
		return false
	}
	return s.template.CanAdd(s.rosters[seat], player.Position)
}

func (s *session) recordRejection(err error) {
	s.engine.metrics.RecordPickRejected(drafterr.CodeOf(err))
}
