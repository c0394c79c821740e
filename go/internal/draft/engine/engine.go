// Package engine runs draft sessions: it sequences turns, times them, commits picks and falls back to
// auto-pick when a clock runs out. Every session is serialized by its own mutex; sessions never share
// mutable state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/metrics"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/store"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCommitTimeout = 5 * time.Second
	DefaultRetryDelay    = 2 * time.Second
	DefaultSnapshotTopN  = 25
)

var tracer = otel.Tracer("github.com/mcdev12/dynasty-draft/go/internal/draft/engine")

// Publisher accepts events without blocking. The broadcast dispatcher implements it.
type Publisher interface {
	Publish(event events.Event) bool
}

type discardPublisher struct{}

func (discardPublisher) Publish(events.Event) bool { return true }

// Config wires an Engine to its collaborators. Store and Pools are required.
type Config struct {
	Store     store.Store
	Pools     pool.Source
	Publisher Publisher
	Metrics   metrics.Collector
	Clock     clockwork.Clock
	Strategy  AutoPickStrategy

	// Presets are named settings StartDraft can refer to.
	Presets map[string]models.DraftSettings
	// FastModePickTime, when positive, replaces every session's per-pick duration.
	FastModePickTime time.Duration
	// CommitTimeout bounds each durable write made under a session lock.
	CommitTimeout time.Duration
	// RetryDelay re-arms a turn clock after an auto-pick failed to persist.
	RetryDelay   time.Duration
	SnapshotTopN int
}

// Engine owns the registry of running sessions.
type Engine struct {
	store     store.Store
	pools     pool.Source
	publisher Publisher
	metrics   metrics.Collector
	clock     clockwork.Clock
	strategy  AutoPickStrategy

	presets       map[string]models.DraftSettings
	fastModePick  time.Duration
	commitTimeout time.Duration
	retryDelay    time.Duration
	topN          int

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	active   atomic.Int64
	stopped  bool
}

// New validates cfg and returns an engine with no sessions loaded.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine requires a store")
	}
	if cfg.Pools == nil {
		return nil, errors.New("engine requires a pool source")
	}
	e := &Engine{
		store:         cfg.Store,
		pools:         cfg.Pools,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		clock:         cfg.Clock,
		strategy:      cfg.Strategy,
		presets:       cfg.Presets,
		fastModePick:  cfg.FastModePickTime,
		commitTimeout: cfg.CommitTimeout,
		retryDelay:    cfg.RetryDelay,
		topN:          cfg.SnapshotTopN,
		sessions:      make(map[uuid.UUID]*session),
	}
	if e.publisher == nil {
		e.publisher = discardPublisher{}
	}
	if e.metrics == nil {
		e.metrics = metrics.NoOpCollector{}
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.strategy == nil {
		e.strategy = RankingStrategy{}
	}
	if e.commitTimeout <= 0 {
		e.commitTimeout = DefaultCommitTimeout
	}
	if e.retryDelay <= 0 {
		e.retryDelay = DefaultRetryDelay
	}
	if e.topN <= 0 {
		e.topN = DefaultSnapshotTopN
	}
	return e, nil
}

// BeginLive moves a scheduled draft to live and starts the first turn.
func (e *Engine) BeginLive(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	ctx, span := startSpan(ctx, "draft.begin_live", draftID)
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}
	d, err := s.beginLive(ctx)
	return d, endSpan(span, err)
}

// SubmitPick commits playerID for seat on the current turn.
func (e *Engine) SubmitPick(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID) (models.DraftPick, error) {
	ctx, span := startSpan(ctx, "draft.submit_pick", draftID,
		attribute.Int("seat", seat), attribute.String("player_id", playerID.String()))
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return models.DraftPick{}, endSpan(span, err)
	}
	pick, err := s.submitPick(ctx, seat, playerID)
	if err == nil {
		span.SetAttributes(attribute.Int("overall_pick", pick.OverallPick))
	}
	return pick, endSpan(span, err)
}

func (e *Engine) PauseDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	ctx, span := startSpan(ctx, "draft.pause", draftID)
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}
	d, err := s.pause(ctx)
	return d, endSpan(span, err)
}

func (e *Engine) ResumeDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	ctx, span := startSpan(ctx, "draft.resume", draftID)
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}
	d, err := s.resume(ctx)
	return d, endSpan(span, err)
}

// AbandonDraft terminates a live or paused draft. An empty reason is recorded as "cancelled".
func (e *Engine) AbandonDraft(ctx context.Context, draftID uuid.UUID, reason string) (models.Draft, error) {
	ctx, span := startSpan(ctx, "draft.abandon", draftID)
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return models.Draft{}, endSpan(span, err)
	}
	if reason == "" {
		reason = ReasonCancelled
	}
	d, err := s.abandon(ctx, reason)
	return d, endSpan(span, err)
}

// EnqueuePreference adds playerID to the seat's queue and returns the queue.
func (e *Engine) EnqueuePreference(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID, position *int) ([]uuid.UUID, error) {
	ctx, span := startSpan(ctx, "draft.enqueue_preference", draftID, attribute.Int("seat", seat))
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	q, err := s.enqueue(ctx, seat, playerID, position)
	return q, endSpan(span, err)
}

// RemovePreference drops playerID from the seat's queue and returns the queue.
func (e *Engine) RemovePreference(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID) ([]uuid.UUID, error) {
	ctx, span := startSpan(ctx, "draft.remove_preference", draftID, attribute.Int("seat", seat))
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	q, err := s.removePreference(ctx, seat, playerID)
	return q, endSpan(span, err)
}

// SetAutoPick toggles the seat's auto-pick flag.
func (e *Engine) SetAutoPick(ctx context.Context, draftID uuid.UUID, seat int, enabled bool) (models.Participant, error) {
	ctx, span := startSpan(ctx, "draft.set_auto_pick", draftID,
		attribute.Int("seat", seat), attribute.Bool("enabled", enabled))
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return models.Participant{}, endSpan(span, err)
	}
	p, err := s.setAutoPick(ctx, seat, enabled)
	return p, endSpan(span, err)
}

// GetSnapshot returns the full state of a draft for reconnecting clients.
func (e *Engine) GetSnapshot(ctx context.Context, draftID uuid.UUID) (Snapshot, error) {
	_, span := startSpan(ctx, "draft.get_snapshot", draftID)
	defer span.End()

	s, err := e.session(draftID)
	if err != nil {
		return Snapshot{}, endSpan(span, err)
	}
	return s.snapshot(e.topN), nil
}

// Drafts lists the ids of every loaded session.
func (e *Engine) Drafts() []uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops every session clock. Sessions stay in the store as they are. Calling it again
// is a no-op.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	for _, s := range e.sessions {
		s.stop()
	}
	log.Info().Int("sessions", len(e.sessions)).Msg("draft engine stopped")
}

func (e *Engine) session(id uuid.UUID) (*session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return nil, errEngineStopped()
	}
	s, ok := e.sessions[id]
	if !ok {
		return nil, drafterr.WithMetadata(drafterr.CodeNotFound, "draft not found",
			map[string]string{"draft_id": id.String()})
	}
	return s, nil
}

func (e *Engine) isStopped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stopped
}

func errEngineStopped() error {
	return drafterr.New(drafterr.CodeInvalidState, "draft engine is shut down")
}

func (e *Engine) register(s *session) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errEngineStopped()
	}
	if _, exists := e.sessions[s.draft.ID]; exists {
		return drafterr.WithMetadata(drafterr.CodeConflict, "draft already loaded",
			map[string]string{"draft_id": s.draft.ID.String()})
	}
	e.sessions[s.draft.ID] = s
	if !s.draft.Status.Terminal() {
		e.metrics.SetActiveSessions(int(e.active.Add(1)))
	}
	return nil
}

func startSpan(ctx context.Context, name string, draftID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("draft_id", draftID.String()))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.code", string(drafterr.CodeOf(err))))
	}
	return err
}

func wrapStore(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, err)
}
