package room

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowpile/lowpile/game/engine"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameStarted    = errors.New("game already started")
	ErrGameNotStarted = errors.New("game not started")
	ErrRoomFull       = errors.New("room is full")
	ErrNotAdmin       = errors.New("only the admin can start the game")
)

// Status is the room lifecycle as clients see it
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusStarted Status = "started"
)

// Room groups the players of one game and, once started, the engine that
// owns its state. The embedded mutex is the room's exclusive section: every
// mutating game operation runs with it held, so the engine itself can stay
// single-threaded.
type Room struct {
	ID        string             `json:"id"`
	Players   []engine.Player    `json:"players"`
	Status    Status             `json:"status"`
	Engine    *engine.GameEngine `json:"-"`
	CreatedAt time.Time          `json:"created_at"`

	mu sync.Mutex
}

// Lock acquires the room's exclusive section.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room's exclusive section.
func (r *Room) Unlock() { r.mu.Unlock() }

// Admin returns the room's admin player.
func (r *Room) Admin() *engine.Player {
	for i := range r.Players {
		if r.Players[i].Role == engine.RoleAdmin {
			return &r.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether the given player belongs to the room.
func (r *Room) HasPlayer(playerID string) bool {
	for _, p := range r.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// Manager is the registry of active rooms. Its lock guards only the
// registry itself; game mutations are serialized by each room's own lock.
type Manager struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewManager creates an empty room registry.
func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// Create makes a new room with the named player as admin and returns both.
func (m *Manager) Create(adminName string) (*Room, engine.Player, error) {
	admin := engine.Player{
		ID:   newPlayerID(),
		Name: adminName,
		Role: engine.RoleAdmin,
	}
	r := &Room{
		ID:        newRoomID(),
		Players:   []engine.Player{admin},
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// UUID prefixes can collide on unlucky draws; redraw until free.
	for m.rooms[r.ID] != nil {
		r.ID = newRoomID()
	}
	m.rooms[r.ID] = r

	return r, admin, nil
}

// Get retrieves a room by ID.
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Join adds a named participant to a waiting room.
func (m *Manager) Join(roomID, playerName string) (engine.Player, error) {
	r, err := m.Get(roomID)
	if err != nil {
		return engine.Player{}, err
	}

	r.Lock()
	defer r.Unlock()

	if r.Status != StatusWaiting {
		return engine.Player{}, ErrGameStarted
	}
	if len(r.Players) >= engine.MaxPlayers {
		return engine.Player{}, ErrRoomFull
	}

	p := engine.Player{
		ID:   newPlayerID(),
		Name: playerName,
		Role: engine.RolePlayer,
	}
	r.Players = append(r.Players, p)
	return p, nil
}

// List returns all active rooms.
func (m *Manager) List() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		result = append(result, r)
	}
	return result
}

// Delete removes a room from the registry.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

// Count returns the number of active rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Short UUID prefixes, matching what players are used to typing.
func newRoomID() string   { return uuid.NewString()[:5] }
func newPlayerID() string { return uuid.NewString()[:8] }
