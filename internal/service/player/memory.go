package player

import (
	"context"
	"sync"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// MemoryRepository is the Repository used with DB_DRIVER=memory and in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	players map[string]domain.Player
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{players: make(map[string]domain.Player)}
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) Create(ctx context.Context, player *domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[player.ID]; ok {
		return domain.ErrUsernameTaken
	}
	if m.nameTaken(player.Name, player.ID) {
		return domain.ErrUsernameTaken
	}
	m.players[player.ID] = *player
	return nil
}

func (m *MemoryRepository) UpdateName(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if m.nameTaken(name, id) {
		return domain.ErrUsernameTaken
	}
	p.Name = name
	m.players[id] = p
	return nil
}

func (m *MemoryRepository) UpdateRatings(ctx context.Context, ratings map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range ratings {
		if _, ok := m.players[id]; !ok {
			return domain.ErrPlayerNotFound
		}
	}
	for id, rating := range ratings {
		p := m.players[id]
		p.Rating = rating
		m.players[id] = p
	}
	return nil
}

func (m *MemoryRepository) nameTaken(name, exceptID string) bool {
	for id, p := range m.players {
		if id != exceptID && p.Name == name {
			return true
		}
	}
	return false
}
