package room

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry manages all rooms
type Registry struct {
	rooms  map[string]*Room // by id
	byCode map[string]*Room // by short code
	config Config
	mu     sync.RWMutex

	stop chan struct{}

	// Callbacks
	onRoomExpired func(*Room)
}

// NewRegistry creates a new room registry and starts its cleanup loop.
func NewRegistry(config Config) *Registry {
	r := &Registry{
		rooms:  make(map[string]*Room),
		byCode: make(map[string]*Room),
		config: config,
		stop:   make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Close stops the cleanup loop.
func (r *Registry) Close() {
	close(r.stop)
}

// Create makes a new room with a fresh unique code.
func (r *Registry) Create(name string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.uniqueCodeLocked()
	if err != nil {
		return nil, err
	}
	return r.createLocked(name, code), nil
}

// createLocked builds and indexes a room. Caller holds mu.
func (r *Registry) createLocked(name, code string) *Room {
	room := &Room{
		ID:           uuid.NewString(),
		Code:         code,
		Name:         name,
		CreatedAt:    time.Now(),
		members:      make(map[string]Member),
		history:      []string{""},
		cursor:       0,
		lastActivity: time.Now(),
		config:       r.config,
	}
	r.rooms[room.ID] = room
	r.byCode[room.Code] = room
	return room
}

func (r *Registry) uniqueCodeLocked() (string, error) {
	for {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.byCode[code]; !taken {
			return code, nil
		}
	}
}

// Get retrieves a room by ID.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// GetByCode retrieves a room by its short code.
func (r *Registry) GetByCode(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byCode[strings.ToUpper(code)]
	return room, ok
}

// Resolve finds a room by id or code.
func (r *Registry) Resolve(key string) (*Room, bool) {
	if room, ok := r.Get(key); ok {
		return room, true
	}
	return r.GetByCode(key)
}

// GetOrCreate resolves key, creating the room on first use. A key
// shaped like a room code becomes the new room's code so a shared
// link works before anyone has joined.
func (r *Registry) GetOrCreate(key string) (*Room, error) {
	if room, ok := r.Resolve(key); ok {
		return room, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock.
	if room, ok := r.rooms[key]; ok {
		return room, nil
	}
	code := strings.ToUpper(key)
	if room, ok := r.byCode[code]; ok {
		return room, nil
	}

	if !ValidCode(code) {
		var err error
		code, err = r.uniqueCodeLocked()
		if err != nil {
			return nil, err
		}
	}
	return r.createLocked("", code), nil
}

// Delete removes a room from the registry.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[id]; ok {
		delete(r.byCode, room.Code)
		delete(r.rooms, id)
	}
}

// OnRoomExpired sets a callback for when an empty room times out.
func (r *Registry) OnRoomExpired(callback func(*Room)) {
	r.onRoomExpired = callback
}

// cleanupLoop periodically removes expired rooms.
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(r.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, room := range r.rooms {
		if room.IsExpired() {
			if r.onRoomExpired != nil {
				go r.onRoomExpired(room)
			}
			delete(r.byCode, room.Code)
			delete(r.rooms, id)
		}
	}
}

// AllRooms returns all active rooms (for debugging/admin).
func (r *Registry) AllRooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Count returns the total number of rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
