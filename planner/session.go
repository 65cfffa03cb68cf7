package planner

import (
	"context"
	"sync"
	"time"

	"tripboard/dragdrop"
	"tripboard/models"
	"tripboard/schedule"
)

// Session is a draft planning session: the trip plan, the schedule being
// assembled and the drag in flight.
type Session struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Plan        models.TravelPlan `json:"plan"`
	Schedule    schedule.Schedule `json:"schedule"`
	Tracker     dragdrop.Tracker  `json:"tracker"`
	Generating  bool              `json:"generating"`
	ItineraryID string            `json:"itinerary_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SessionStore keeps draft sessions. Load returns ErrSessionNotFound for
// unknown or expired ids.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
