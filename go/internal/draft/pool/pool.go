// Package pool holds the read-only catalogue of draftable players for one session.
package pool

import (
	"slices"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Pool is immutable after construction and safe for concurrent reads.
type Pool struct {
	players []models.Player
	index   map[uuid.UUID]int
	ranked  []int
}

// New builds a pool, keeping insertion order for ranking ties.
func New(players []models.Player) (*Pool, error) {
	if len(players) == 0 {
		return nil, drafterr.New(drafterr.CodeConfiguration, "player pool is empty")
	}

	p := &Pool{
		players: slices.Clone(players),
		index:   make(map[uuid.UUID]int, len(players)),
		ranked:  make([]int, len(players)),
	}
	for i, pl := range p.players {
		if pl.ID == uuid.Nil {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "player has no id",
				map[string]string{"player": pl.FullName})
		}
		if _, dup := p.index[pl.ID]; dup {
			return nil, drafterr.WithMetadata(drafterr.CodeConfiguration, "duplicate player in pool",
				map[string]string{"player_id": pl.ID.String()})
		}
		p.index[pl.ID] = i
		p.ranked[i] = i
	}

	slices.SortStableFunc(p.ranked, func(a, b int) int {
		return compareRank(p.players[a].Rank, p.players[b].Rank)
	})
	return p, nil
}

// compareRank orders ranked players ascending and unranked (<= 0) players last.
func compareRank(a, b int) int {
	switch {
	case a == b:
		return 0
	case a <= 0 && b <= 0:
		return 0
	case a <= 0:
		return 1
	case b <= 0:
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}

func (p *Pool) Len() int {
	return len(p.players)
}

func (p *Pool) Get(id uuid.UUID) (models.Player, bool) {
	i, ok := p.index[id]
	if !ok {
		return models.Player{}, false
	}
	return p.players[i], true
}

func (p *Pool) Contains(id uuid.UUID) bool {
	_, ok := p.index[id]
	return ok
}

// Players returns the pool in insertion order.
func (p *Pool) Players() []models.Player {
	return slices.Clone(p.players)
}

// Ranked returns the pool in fallback order: rank ascending, ties by insertion order.
func (p *Pool) Ranked() []models.Player {
	out := make([]models.Player, len(p.ranked))
	for i, idx := range p.ranked {
		out[i] = p.players[idx]
	}
	return out
}

// BestAvailable returns the highest ranked player accepted by usable.
func (p *Pool) BestAvailable(usable func(models.Player) bool) (models.Player, bool) {
	for _, idx := range p.ranked {
		if usable(p.players[idx]) {
			return p.players[idx], true
		}
	}
	return models.Player{}, false
}

// TopAvailable returns up to limit players accepted by usable, in ranking order.
func (p *Pool) TopAvailable(limit int, usable func(models.Player) bool) []models.Player {
	var out []models.Player
	for _, idx := range p.ranked {
		if len(out) >= limit {
			break
		}
		if usable(p.players[idx]) {
			out = append(out, p.players[idx])
		}
	}
	return out
}

// CountByPosition returns how many players the pool has at each position.
func (p *Pool) CountByPosition() map[string]int {
	counts := make(map[string]int)
	for _, pl := range p.players {
		counts[pl.Position]++
	}
	return counts
}
