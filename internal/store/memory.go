// internal/store/memory.go
//
// In-memory registry of live game sessions.
// Sessions are ephemeral: they exist from POST /game/new until process
// restart. Finished games persist only their score row (internal/db).
//
// Characteristics:
//   - Stores *Session keyed by a uuid.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes
//     exclusive).
//   - Errors are returned for missing session IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yuchen-lin/jielong/internal/game"
)

// ErrNotFound is returned when a session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Session binds one engine instance to its identifiers.
type Session struct {
	ID        string       // uuid assigned at creation
	Engine    *game.Engine // the turn controller for this game
	Mode      string       // "dictionary" | "llm"
	OwnerID   string       // user ID when authenticated, else ""
	AnonID    string       // anonymous cookie ID for guests
	CreatedAt time.Time
}

// Store defines the registry interface for live sessions.
type Store interface {
	// Create registers the session and assigns its ID.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session; unknown IDs are a no-op.
	Delete(ctx context.Context, id string) error
}

// memory is a map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

// Create assigns a uuid and registers the session.
func (m *memory) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// Delete removes a session.
func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
