package store

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

type memoryRecord struct {
	draft  models.Draft
	picks  []models.DraftPick
	queues map[int][]uuid.UUID
}

// MemoryStore keeps everything in process. Used for tests, simulations and single-node demos.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[uuid.UUID]*memoryRecord)}
}

func (s *MemoryStore) CreateDraft(_ context.Context, d models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.drafts[d.ID]; exists {
		return errDraftExists(d.ID)
	}
	s.drafts[d.ID] = &memoryRecord{draft: d.Clone(), queues: make(map[int][]uuid.UUID)}
	return nil
}

func (s *MemoryStore) UpdateDraft(_ context.Context, d models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.drafts[d.ID]
	if !ok {
		return notFound(d.ID)
	}
	next := d.Clone()
	next.PickCount = rec.draft.PickCount
	rec.draft = next
	return nil
}

func (s *MemoryStore) AppendPick(_ context.Context, d models.Draft, pick models.DraftPick) error {
	if err := validateAppend(d, pick); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.drafts[d.ID]
	if !ok {
		return notFound(d.ID)
	}
	if rec.draft.PickCount != pick.OverallPick-1 {
		return conflict(d, pick)
	}
	for _, p := range rec.picks {
		if p.PlayerID == pick.PlayerID {
			return conflict(d, pick)
		}
	}
	rec.picks = append(rec.picks, pick)
	rec.draft = d.Clone()
	return nil
}

func (s *MemoryStore) SaveQueue(_ context.Context, draftID uuid.UUID, seat int, players []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return notFound(draftID)
	}
	if len(players) == 0 {
		delete(rec.queues, seat)
		return nil
	}
	rec.queues[seat] = slices.Clone(players)
	return nil
}

func (s *MemoryStore) GetDraft(_ context.Context, id uuid.UUID) (models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[id]
	if !ok {
		return models.Draft{}, notFound(id)
	}
	return rec.draft.Clone(), nil
}

func (s *MemoryStore) ListPicks(_ context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, notFound(draftID)
	}
	return slices.Clone(rec.picks), nil
}

func (s *MemoryStore) ListQueues(_ context.Context, draftID uuid.UUID) (map[int][]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, notFound(draftID)
	}
	out := make(map[int][]uuid.UUID, len(rec.queues))
	for seat, q := range rec.queues {
		out[seat] = slices.Clone(q)
	}
	return out, nil
}

func (s *MemoryStore) ListActiveDrafts(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for id, rec := range s.drafts {
		if !rec.draft.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids, nil
}
