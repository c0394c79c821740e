package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/roster"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/sequence"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// ParticipantInput describes one seat of a new draft. Seat may be left zero, in which case seats
// follow the order of the participant list.
type ParticipantInput struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Seat     int    `json:"seat,omitempty"`
	AutoPick bool   `json:"auto_pick,omitempty"`
}

// StartDraftRequest creates a scheduled draft. When Preset is set its settings are used, with a
// non-empty Settings.PoolID taking precedence over the preset's pool.
type StartDraftRequest struct {
	ID           uuid.UUID            `json:"id,omitempty"`
	Name         string               `json:"name"`
	Preset       string               `json:"preset,omitempty"`
	Settings     models.DraftSettings `json:"settings"`
	Participants []ParticipantInput   `json:"participants"`
}

// StartDraft validates the configuration, loads the player pool and persists a scheduled draft.
func (e *Engine) StartDraft(ctx context.Context, req StartDraftRequest) (models.Draft, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	ctx, span := startSpan(ctx, "draft.start", req.ID, attribute.Int("teams", len(req.Participants)))
	defer span.End()
	if e.isStopped() {
		return models.Draft{}, endSpan(span, errEngineStopped())
	}

	settings, err := e.resolveSettings(req)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}
	participants, err := buildParticipants(req.Participants)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}

	now := e.clock.Now().UTC()
	d := models.Draft{
		ID:           req.ID,
		Name:         req.Name,
		Status:       models.DraftStatusScheduled,
		Settings:     settings,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s, err := e.load(ctx, d, nil, nil)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}

	if err := e.store.CreateDraft(ctx, d); err != nil {
		return models.Draft{}, endSpan(span, wrapStore("create draft", err))
	}
	if err := e.register(s); err != nil {
		return models.Draft{}, endSpan(span, err)
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Int("teams", len(participants)).
		Int("rounds", settings.Rounds).
		Int64("time_per_pick_ms", settings.TimePerPickMs).
		Str("pool_id", settings.PoolID).
		Msg("draft scheduled")
	return d.Clone(), nil
}

func (e *Engine) resolveSettings(req StartDraftRequest) (models.DraftSettings, error) {
	settings := req.Settings
	if req.Preset != "" {
		preset, ok := e.presets[req.Preset]
		if !ok {
			return models.DraftSettings{}, drafterr.WithMetadata(drafterr.CodeConfiguration, "unknown draft preset",
				map[string]string{"preset": req.Preset})
		}
		poolID := settings.PoolID
		settings = preset
		settings.RosterSlots = append([]models.RosterSlot(nil), preset.RosterSlots...)
		if poolID != "" {
			settings.PoolID = poolID
		}
	}
	if e.fastModePick > 0 {
		settings.TimePerPickMs = e.fastModePick.Milliseconds()
	}

	if settings.TimePerPickMs <= 0 {
		return models.DraftSettings{}, drafterr.WithMetadata(drafterr.CodeConfiguration, "time per pick must be positive",
			map[string]string{"time_per_pick_ms": strconv.FormatInt(settings.TimePerPickMs, 10)})
	}
	if settings.AutoPickDelayMs < 0 {
		return models.DraftSettings{}, drafterr.WithMetadata(drafterr.CodeConfiguration, "auto-pick delay must not be negative",
			map[string]string{"auto_pick_delay_ms": strconv.FormatInt(settings.AutoPickDelayMs, 10)})
	}
	if strings.TrimSpace(settings.PoolID) == "" {
		return models.DraftSettings{}, drafterr.New(drafterr.CodeConfiguration, "pool id is required")
	}
	return settings, nil
}

func buildParticipants(in []ParticipantInput) ([]models.Participant, error) {
	explicit := len(in) > 0 && in[0].Seat != 0
	seats := make(map[int]bool, len(in))
	users := make(map[string]bool, len(in))

	out := make([]models.Participant, 0, len(in))
	for i, p := range in {
		seat := i + 1
		if explicit {
			seat = p.Seat
		} else if p.Seat != 0 {
			return nil, drafterr.New(drafterr.CodeConfiguration, "either every participant has a seat or none does")
		}
		if seat < 1 || seat > len(in) || seats[seat] {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "seats must be 1..N without repeats",
				map[string]string{"seat": strconv.Itoa(seat)})
		}
		if strings.TrimSpace(p.UserID) == "" {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "participant user id is required",
				map[string]string{"seat": strconv.Itoa(seat)})
		}
		if users[p.UserID] {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "participant appears twice",
				map[string]string{"user_id": p.UserID})
		}
		seats[seat] = true
		users[p.UserID] = true

		name := p.Name
		if name == "" {
			name = p.UserID
		}
		out = append(out, models.Participant{
			ID:       uuid.New(),
			UserID:   p.UserID,
			Name:     name,
			Seat:     seat,
			AutoPick: p.AutoPick,
		})
	}
	return out, nil
}

// load validates d against its pool and roster template and builds a session from persisted state.
func (e *Engine) load(ctx context.Context, d models.Draft, picks []models.DraftPick, queues map[int][]uuid.UUID) (*session, error) {
	teams := len(d.Participants)
	order, err := sequence.New(teams, d.Settings.Rounds, d.Settings.ThirdRoundReversal)
	if err != nil {
		return nil, err
	}

	template, err := roster.NewTemplate(d.Settings.RosterSlots)
	if err != nil {
		return nil, err
	}
	if !template.Unrestricted() && template.Size() < d.Settings.Rounds {
		return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "roster slots cannot hold every round",
			map[string]string{
				"slots":  strconv.Itoa(template.Size()),
				"rounds": strconv.Itoa(d.Settings.Rounds),
			})
	}

	players, err := e.pools.LoadPool(ctx, d.Settings.PoolID)
	if err != nil {
		if drafterr.CodeOf(err) == drafterr.CodeUnknown {
			return nil, drafterr.Wrap(drafterr.CodeConfiguration, "failed to load player pool", err)
		}
		return nil, err
	}
	p, err := pool.New(players)
	if err != nil {
		return nil, err
	}
	if p.Len() < order.TotalPicks() {
		return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "player pool is smaller than the draft",
			map[string]string{
				"pool_size":   strconv.Itoa(p.Len()),
				"total_picks": strconv.Itoa(order.TotalPicks()),
			})
	}
	supply := p.CountByPosition()
	for position, need := range template.DedicatedDemand(teams) {
		if supply[position] < need {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "player pool cannot fill roster slots",
				map[string]string{
					"position":  position,
					"required":  strconv.Itoa(need),
					"available": strconv.Itoa(supply[position]),
				})
		}
	}

	return newSession(e, d, order, p, template, picks, queues)
}
