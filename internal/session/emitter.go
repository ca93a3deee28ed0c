package session

// roomEmitter adapts the hub to the game engine's output interface,
// pinning events to one room.
type roomEmitter struct {
	hub    *Hub
	roomID string
}

func (e roomEmitter) Broadcast(event string, payload any) {
	e.hub.BroadcastToRoom(e.roomID, event, payload, "")
}

func (e roomEmitter) SendTo(connID, event string, payload any) {
	e.hub.SendTo(connID, event, payload)
}
