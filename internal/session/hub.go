package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/inklink/boardserver/internal/game"
	"github.com/inklink/boardserver/internal/protocol"
	"github.com/inklink/boardserver/internal/room"
	"github.com/inklink/boardserver/internal/signal"
	"github.com/inklink/boardserver/internal/store"
)

// Options configures a Hub.
type Options struct {
	GameConfig     game.Config
	EventsPerSec   int
	EventBurst     int
	AllowedOrigins []string // empty allows any origin
}

// Hub routes realtime events between connections, rooms, the media
// mesh, and per-room game engines.
type Hub struct {
	log   zerolog.Logger
	rooms *room.Registry
	store store.SnapshotStore
	mesh  *signal.Mesh
	opts  Options

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client    // by connection id
	games   map[string]*game.Game // by room id

	// roomLocks serializes room-scoped event handling so a mutation
	// and its broadcast are atomic per room.
	roomLocks sync.Map // roomID -> *sync.Mutex
}

// NewHub wires the hub to its collaborators and hooks room expiry so
// a dying room's canvas is persisted first.
func NewHub(rooms *room.Registry, snapshots store.SnapshotStore, mesh *signal.Mesh, opts Options, log zerolog.Logger) *Hub {
	if opts.EventsPerSec <= 0 {
		opts.EventsPerSec = 120
	}
	if opts.EventBurst <= 0 {
		opts.EventBurst = 2 * opts.EventsPerSec
	}

	h := &Hub{
		log:     log,
		rooms:   rooms,
		store:   snapshots,
		mesh:    mesh,
		opts:    opts,
		clients: make(map[string]*Client),
		games:   make(map[string]*game.Game),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	rooms.OnRoomExpired(h.onRoomExpired)
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.opts.AllowedOrigins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}

// ServeWS upgrades an HTTP request and starts the connection's pumps.
// The username has already been resolved by the caller.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, username string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		ID:       uuid.NewString(),
		Username: username,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(h.opts.EventsPerSec), h.opts.EventBurst),
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.log.Info().Str("conn", c.ID).Str("username", username).Msg("connection opened")

	go c.writePump()
	go c.readPump()
	return nil
}

// Disconnect tears a connection down: leaves its room, drops its mesh
// links, and forgets the client.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c.ID]
	delete(h.clients, c.ID)
	roomID := c.roomID
	c.roomID = ""
	h.mu.Unlock()

	if !known {
		return
	}
	if roomID != "" {
		h.leaveRoom(c, roomID)
	}
	c.closeSend()
	h.log.Info().Str("conn", c.ID).Str("username", c.Username).Msg("connection closed")
}

// client looks up a live connection by id.
func (h *Hub) client(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// clientRoom returns the room id a connection currently occupies.
func (h *Hub) clientRoom(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.roomID
}

func (h *Hub) setClientRoom(c *Client, roomID string) {
	h.mu.Lock()
	c.roomID = roomID
	h.mu.Unlock()
}

// lockRoom serializes handling of room-scoped events.
func (h *Hub) lockRoom(roomID string) func() {
	v, _ := h.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// gameFor returns the room's engine, if one was ever started.
func (h *Hub) gameFor(roomID string) (*game.Game, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	g, ok := h.games[roomID]
	return g, ok
}

// BroadcastToRoom sends an event to every member of a room, minus an
// optional excluded connection.
func (h *Hub) BroadcastToRoom(roomID, event string, payload any, exceptID string) {
	rm, ok := h.rooms.Get(roomID)
	if !ok {
		return
	}
	data, err := protocol.Encode(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode failed")
		return
	}

	memberIDs := rm.MemberIDs()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range memberIDs {
		if id == exceptID {
			continue
		}
		if c, ok := h.clients[id]; ok {
			c.enqueue(data)
		}
	}
}

// SendTo delivers an event to one connection, a no-op if it is gone.
func (h *Hub) SendTo(connID, event string, payload any) {
	c, ok := h.client(connID)
	if !ok {
		return
	}
	c.sendEvent(event, payload)
}

// systemMessage appends and broadcasts a system chat line.
func (h *Hub) systemMessage(rm *room.Room, text string) {
	msg := protocol.ChatMessage{
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		Type:      "system",
	}
	rm.AppendChat(msg)
	h.BroadcastToRoom(rm.ID, protocol.EventChatMessage, msg, "")
}

// leaveRoom removes a connection from a room and cleans up everything
// hanging off it. The caller has already cleared the client's roomID.
func (h *Hub) leaveRoom(c *Client, roomID string) {
	unlock := h.lockRoom(roomID)
	defer unlock()

	rm, ok := h.rooms.Get(roomID)
	if !ok {
		return
	}
	member, ok := rm.Leave(c.ID)
	if !ok {
		return
	}

	h.mesh.DropMember(roomID, c.ID)
	if g, ok := h.gameFor(roomID); ok {
		g.HandleLeave(c.ID)
	}

	h.BroadcastToRoom(roomID, protocol.EventRoomUserLeft, protocol.RoomUserLeft{
		Username: member.Username,
		Users:    rosterOf(rm),
	}, "")
	h.systemMessage(rm, member.Username+" left the room")

	if rm.IsEmpty() {
		h.persistCanvas(rm)
	}
	h.log.Debug().Str("conn", c.ID).Str("room", roomID).Msg("left room")
}

// persistCanvas saves the room's current snapshot, keyed by code so a
// re-created room under the same link finds it again.
func (h *Hub) persistCanvas(rm *room.Room) {
	snapshot := rm.CurrentSnapshot()
	if snapshot == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.Save(ctx, rm.Code, snapshot); err != nil {
		h.log.Error().Err(err).Str("room", rm.ID).Msg("persist canvas failed")
	}
}

// onRoomExpired runs when the registry reaps an empty room.
func (h *Hub) onRoomExpired(rm *room.Room) {
	h.persistCanvas(rm)
	h.mesh.DropRoom(rm.ID)

	h.mu.Lock()
	g, ok := h.games[rm.ID]
	delete(h.games, rm.ID)
	h.mu.Unlock()
	if ok {
		g.Stop()
	}
	h.roomLocks.Delete(rm.ID)
	h.log.Info().Str("room", rm.ID).Str("code", rm.Code).Msg("room expired")
}

// rosterOf renders the member list for the wire.
func rosterOf(rm *room.Room) []protocol.MemberInfo {
	members := rm.Members()
	out := make([]protocol.MemberInfo, 0, len(members))
	for _, m := range members {
		out = append(out, protocol.MemberInfo{
			SocketID: m.ID,
			Username: m.Username,
			Color:    m.Color,
			IsHost:   m.IsHost,
		})
	}
	return out
}
