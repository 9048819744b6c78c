package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// MemoryStore keeps sessions in process memory. It enforces the same join
// and append rules as the SQL store and is used by tests and DB_DRIVER=memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) CreateSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MemoryStore) FindOldestWaiting(ctx context.Context, excludeParticipant string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *domain.Session
	for _, s := range m.sessions {
		if s.Status != domain.StatusWaiting || s.ParticipantB != "" || s.ParticipantA == excludeParticipant {
			continue
		}
		if oldest == nil || s.CreatedAt.Before(oldest.CreatedAt) ||
			(s.CreatedAt.Equal(oldest.CreatedAt) && s.ID < oldest.ID) {
			oldest = s
		}
	}
	if oldest == nil {
		return nil, nil
	}
	return cloneSession(oldest), nil
}

func (m *MemoryStore) JoinSession(ctx context.Context, sessionID, participantB string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.Status != domain.StatusWaiting || s.ParticipantB != "" || s.ParticipantA == participantB {
		return false, nil
	}
	s.ParticipantB = participantB
	s.Status = domain.StatusActive
	s.UpdatedAt = m.now()
	return true, nil
}

func (m *MemoryStore) WithdrawWaiting(ctx context.Context, sessionID, participantA string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.Status != domain.StatusWaiting || s.ParticipantB != "" || s.ParticipantA != participantA {
		return false, nil
	}
	s.Status = domain.StatusAbandoned
	s.UpdatedAt = m.now()
	return true, nil
}

func (m *MemoryStore) AppendMove(ctx context.Context, move domain.Move, outcome domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[move.SessionID]
	if !ok || s.Status != domain.StatusActive || move.Order != len(s.Moves) {
		return domain.ErrMoveConflict
	}

	s.Moves = append(s.Moves, move)
	s.UpdatedAt = m.now()
	if outcome != domain.OutcomeNone {
		s.Status = domain.StatusCompleted
		s.Winner = outcome
		s.IsTie = outcome == domain.OutcomeTie
	}
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.Status.IsFinished() {
		return domain.ErrSessionNotActive
	}
	s.Status = status
	s.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) FindWaitingByParticipant(ctx context.Context, participantID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.Status == domain.StatusWaiting && s.ParticipantA == participantID {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) AbandonStale(ctx context.Context, waitingBefore, activeBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := m.now()
	for _, s := range m.sessions {
		stale := (s.Status == domain.StatusWaiting && s.CreatedAt.Before(waitingBefore)) ||
			(s.Status == domain.StatusActive && s.UpdatedAt.Before(activeBefore))
		if stale {
			s.Status = domain.StatusAbandoned
			s.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) CountByStatus(ctx context.Context) (map[domain.SessionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[domain.SessionStatus]int)
	for _, s := range m.sessions {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) ListCompletedByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Session
	for _, s := range m.sessions {
		if s.Status == domain.StatusCompleted && s.HasParticipant(participantID) {
			c := cloneSession(s)
			c.Moves = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	c.Moves = append([]domain.Move(nil), s.Moves...)
	return &c
}
