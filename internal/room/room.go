// Package room holds the session registry: rooms, their rosters, chat
// history, and the shared canvas history stack.
package room

import (
	"sort"
	"sync"
	"time"

	"github.com/inklink/boardserver/internal/protocol"
)

// Config for room settings
type Config struct {
	MaxMembers    int           `json:"max_members"`
	EmptyTTL      time.Duration `json:"empty_ttl"`      // Time before an empty room expires
	CleanupPeriod time.Duration `json:"cleanup_period"` // How often to check for expired rooms
	ChatLimit     int           `json:"chat_limit"`
	HistoryLimit  int           `json:"history_limit"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxMembers:    12,
		EmptyTTL:      5 * time.Minute,
		CleanupPeriod: 30 * time.Second,
		ChatLimit:     200,
		HistoryLimit:  40,
	}
}

// Member is a connected participant, keyed by connection id.
type Member struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}

// Room is one collaborative board session.
type Room struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	members  map[string]Member
	hostID   string
	chat     []protocol.ChatMessage
	settings map[string]any

	// Canvas history. history is never empty and cursor always points
	// at the canonical current snapshot.
	history []string
	cursor  int

	lastActivity time.Time
	config       Config
	mu           sync.RWMutex
}

// Join adds a member to the room. The first member becomes host.
// Joining twice with the same id returns the existing member.
func (room *Room) Join(id, username, color string) (Member, error) {
	room.mu.Lock()
	defer room.mu.Unlock()

	if m, exists := room.members[id]; exists {
		return m, nil
	}
	if len(room.members) >= room.config.MaxMembers {
		return Member{}, ErrRoomFull
	}

	isHost := len(room.members) == 0
	if isHost {
		room.hostID = id
	}

	m := Member{
		ID:       id,
		Username: username,
		Color:    color,
		IsHost:   isHost,
		JoinedAt: time.Now(),
	}
	room.members[id] = m
	room.lastActivity = time.Now()
	return m, nil
}

// Leave removes a member. If the host left, the longest-present
// remaining member inherits the room.
func (room *Room) Leave(id string) (Member, bool) {
	room.mu.Lock()
	defer room.mu.Unlock()

	m, exists := room.members[id]
	if !exists {
		return Member{}, false
	}
	delete(room.members, id)
	room.lastActivity = time.Now()

	if id == room.hostID && len(room.members) > 0 {
		next := room.oldestLocked()
		next.IsHost = true
		room.members[next.ID] = next
		room.hostID = next.ID
	}
	return m, true
}

// oldestLocked returns the earliest-joined member. Caller holds mu.
func (room *Room) oldestLocked() Member {
	var oldest Member
	first := true
	for _, m := range room.members {
		if first || m.JoinedAt.Before(oldest.JoinedAt) {
			oldest = m
			first = false
		}
	}
	return oldest
}

// Member returns a member by connection id.
func (room *Room) Member(id string) (Member, bool) {
	room.mu.RLock()
	defer room.mu.RUnlock()
	m, ok := room.members[id]
	return m, ok
}

// Members returns the roster in join order.
func (room *Room) Members() []Member {
	room.mu.RLock()
	defer room.mu.RUnlock()

	out := make([]Member, 0, len(room.members))
	for _, m := range room.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// HostID returns the current host's connection id.
func (room *Room) HostID() string {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return room.hostID
}

// IsHost reports whether the given member owns the room.
func (room *Room) IsHost(id string) bool {
	return room.HostID() == id
}

// MemberCount returns the number of connected members.
func (room *Room) MemberCount() int {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.members)
}

// MemberIDs returns the connection ids of all members.
func (room *Room) MemberIDs() []string {
	room.mu.RLock()
	defer room.mu.RUnlock()
	ids := make([]string, 0, len(room.members))
	for id := range room.members {
		ids = append(ids, id)
	}
	return ids
}

// IsEmpty returns true if the room has no members.
func (room *Room) IsEmpty() bool {
	return room.MemberCount() == 0
}

// IsExpired returns true if the room has been empty longer than TTL.
func (room *Room) IsExpired() bool {
	room.mu.RLock()
	defer room.mu.RUnlock()

	if len(room.members) > 0 {
		return false
	}
	return time.Since(room.lastActivity) > room.config.EmptyTTL
}

// Touch refreshes the activity timestamp.
func (room *Room) Touch() {
	room.mu.Lock()
	room.lastActivity = time.Now()
	room.mu.Unlock()
}

// AppendChat stores a chat line, evicting the oldest past the cap.
func (room *Room) AppendChat(msg protocol.ChatMessage) {
	room.mu.Lock()
	defer room.mu.Unlock()

	room.chat = append(room.chat, msg)
	if limit := room.config.ChatLimit; limit > 0 && len(room.chat) > limit {
		room.chat = room.chat[len(room.chat)-limit:]
	}
	room.lastActivity = time.Now()
}

// SetBackground records the shared canvas background and returns the
// refreshed settings.
func (room *Room) SetBackground(bg string) map[string]any {
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.settings == nil {
		room.settings = make(map[string]any)
	}
	room.settings["bg"] = bg
	room.lastActivity = time.Now()
	return room.settingsLocked()
}

// Settings returns a copy of the room settings, nil if none were set.
func (room *Room) Settings() map[string]any {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return room.settingsLocked()
}

func (room *Room) settingsLocked() map[string]any {
	if room.settings == nil {
		return nil
	}
	out := make(map[string]any, len(room.settings))
	for k, v := range room.settings {
		out[k] = v
	}
	return out
}

// ChatHistory returns a copy of the stored chat log.
func (room *Room) ChatHistory() []protocol.ChatMessage {
	room.mu.RLock()
	defer room.mu.RUnlock()

	out := make([]protocol.ChatMessage, len(room.chat))
	copy(out, room.chat)
	return out
}
