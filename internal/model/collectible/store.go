package collectible

import (
	"context"
	"errors"
	"sync"

	"github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

// ErrNotFound is returned when no collectible matches the requested id.
var ErrNotFound = errors.New("collectible not found")

// Store exposes collectible lookups for battle handlers.
type Store interface {
	// Holdings returns every collectible currently owned by owner, oldest first.
	Holdings(ctx context.Context, owner battle.Identity) ([]battle.Collectible, error)
	// Get returns the collectible with the given id.
	Get(ctx context.Context, id string) (battle.Collectible, error)
}

// MemoryStore implements Store with an in-memory slice, suitable for MVP.
type MemoryStore struct {
	mu    sync.RWMutex
	items []battle.Collectible
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied collectibles.
func NewMemoryStore(items []battle.Collectible) *MemoryStore {
	return &MemoryStore{items: append([]battle.Collectible(nil), items...)}
}

// Holdings filters the stored collectibles by owner.
func (s *MemoryStore) Holdings(_ context.Context, owner battle.Identity) ([]battle.Collectible, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make([]battle.Collectible, 0, 8)
	for _, item := range s.items {
		if item.Owner == owner {
			owned = append(owned, item)
		}
	}
	return owned, nil
}

// Get looks up a collectible by identifier.
func (s *MemoryStore) Get(_ context.Context, id string) (battle.Collectible, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return battle.Collectible{}, ErrNotFound
}

// Transfer changes the owner of a collectible. Snapshots already offered in a battle keep
// the owner they were taken with.
func (s *MemoryStore) Transfer(_ context.Context, id string, to battle.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Owner = to
			return nil
		}
	}
	return ErrNotFound
}
