package pool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Source supplies the players for a pool id at session start.
type Source interface {
	LoadPool(ctx context.Context, poolID string) ([]models.Player, error)
}

// StaticSource serves pools registered in memory.
type StaticSource struct {
	mu    sync.RWMutex
	pools map[string][]models.Player
}

func NewStaticSource() *StaticSource {
	return &StaticSource{pools: make(map[string][]models.Player)}
}

func (s *StaticSource) Put(poolID string, players []models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[poolID] = append([]models.Player(nil), players...)
}

func (s *StaticSource) LoadPool(_ context.Context, poolID string) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players, ok := s.pools[poolID]
	if !ok {
		return nil, drafterr.WithMetadata(drafterr.CodeNotFound, "player pool not found",
			map[string]string{"pool_id": poolID})
	}
	return append([]models.Player(nil), players...), nil
}

// CSVSource reads <Dir>/<poolID>.csv rankings files.
type CSVSource struct {
	Dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) LoadPool(_ context.Context, poolID string) ([]models.Player, error) {
	if poolID == "" || strings.ContainsAny(poolID, `/\`) || strings.Contains(poolID, "..") {
		return nil, drafterr.WithMetadata(drafterr.CodeInvalidArgument, "invalid pool id",
			map[string]string{"pool_id": poolID})
	}

	path := filepath.Join(s.Dir, poolID+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, drafterr.WithMetadata(drafterr.CodeNotFound, "player pool not found",
				map[string]string{"pool_id": poolID})
		}
		return nil, fmt.Errorf("failed to open pool file: %w", err)
	}
	defer f.Close()

	players, err := ParseRankingsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool %s: %w", poolID, err)
	}
	return players, nil
}
