// Package signal tracks the media mesh: which pairs of room members
// have exchanged offers. The server never touches media, it only
// relays session descriptions and keeps the pair bookkeeping so links
// can be torn down when a member leaves.
package signal

import "sync"

type link struct {
	a, b string // ordered so each pair has one key
}

func pair(x, y string) link {
	if x < y {
		return link{x, y}
	}
	return link{y, x}
}

// Mesh records peer links per room.
type Mesh struct {
	mu    sync.Mutex
	rooms map[string]map[link]struct{}
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{rooms: make(map[string]map[link]struct{})}
}

// AddLink records a signaling exchange between two members.
// Self-links are ignored.
func (m *Mesh) AddLink(roomID, a, b string) {
	if a == b || a == "" || b == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	links, ok := m.rooms[roomID]
	if !ok {
		links = make(map[link]struct{})
		m.rooms[roomID] = links
	}
	links[pair(a, b)] = struct{}{}
}

// DropMember removes every link involving id and returns the peers
// that were connected to it.
func (m *Mesh) DropMember(roomID, id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	links, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	var peers []string
	for l := range links {
		if l.a == id || l.b == id {
			other := l.a
			if other == id {
				other = l.b
			}
			peers = append(peers, other)
			delete(links, l)
		}
	}
	if len(links) == 0 {
		delete(m.rooms, roomID)
	}
	return peers
}

// DropRoom forgets all links in a room.
func (m *Mesh) DropRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
}

// LinkCount returns the number of live links in a room.
func (m *Mesh) LinkCount(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[roomID])
}

// Linked reports whether two members have an open link.
func (m *Mesh) Linked(roomID, a, b string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	links, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	_, found := links[pair(a, b)]
	return found
}
