// Package queue keeps each seat's ordered list of preferred players.
package queue

import (
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
)

// Usable reports whether a queued player can still be drafted by the seat.
type Usable func(playerID uuid.UUID) bool

// Manager holds per-seat queues. It is not safe for concurrent use; the owning session
// serializes access.
type Manager struct {
	queues map[int][]uuid.UUID
}

func NewManager() *Manager {
	return &Manager{queues: make(map[int][]uuid.UUID)}
}

// Enqueue appends playerID to the seat's queue, or inserts it at the 0-based position when one is
// given. Positions past the end append. A player already queued moves to the new position.
func (m *Manager) Enqueue(seat int, playerID uuid.UUID, position *int) error {
	if position != nil && *position < 0 {
		return drafterr.WithMetadata(drafterr.CodeInvalidArgument, "queue position must not be negative",
			map[string]string{"position": strconv.Itoa(*position)})
	}

	q := m.without(seat, playerID)
	at := len(q)
	if position != nil && *position < at {
		at = *position
	}
	m.queues[seat] = slices.Insert(q, at, playerID)
	return nil
}

// Remove drops playerID from the seat's queue and reports whether it was queued.
func (m *Manager) Remove(seat int, playerID uuid.UUID) bool {
	before := len(m.queues[seat])
	q := m.without(seat, playerID)
	m.set(seat, q)
	return len(q) != before
}

// DequeueNext pops players off the front of the seat's queue until it finds one that is still
// usable. Unusable entries are discarded. Returns false once the queue is exhausted.
func (m *Manager) DequeueNext(seat int, usable Usable) (uuid.UUID, bool) {
	q := m.queues[seat]
	for len(q) > 0 {
		next := q[0]
		q = q[1:]
		if usable == nil || usable(next) {
			m.set(seat, q)
			return next, true
		}
	}
	m.set(seat, nil)
	return uuid.Nil, false
}

// List returns a copy of the seat's queue.
func (m *Manager) List(seat int) []uuid.UUID {
	return slices.Clone(m.queues[seat])
}

// Replace overwrites the seat's queue, used when restoring a session.
func (m *Manager) Replace(seat int, players []uuid.UUID) {
	m.set(seat, slices.Clone(players))
}

func (m *Manager) Len(seat int) int {
	return len(m.queues[seat])
}

func (m *Manager) without(seat int, playerID uuid.UUID) []uuid.UUID {
	q := slices.Clone(m.queues[seat])
	return slices.DeleteFunc(q, func(id uuid.UUID) bool { return id == playerID })
}

func (m *Manager) set(seat int, q []uuid.UUID) {
	if len(q) == 0 {
		delete(m.queues, seat)
		return
	}
	m.queues[seat] = q
}
