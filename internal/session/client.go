// Package session owns the realtime side of the server: one Client
// per websocket connection, a Hub that routes events between clients,
// rooms, the media mesh, and the game engine.
package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/inklink/boardserver/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Canvas snapshots travel as data URLs, so frames can be large.
	maxMessageSize = 4 << 20

	sendBuffer = 256
)

// Client is one websocket connection and its pump goroutines.
type Client struct {
	ID       string
	Username string
	Color    string

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	closeOnce sync.Once

	// roomID is guarded by hub.mu: the hub moves clients between
	// rooms, including kicks issued from other connections.
	roomID string
}

// enqueue hands a frame to the write pump. A slow consumer's frame is
// dropped rather than stalling the room; resync-on-join recovers them.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.log.Warn().Str("conn", c.ID).Msg("send buffer full, dropping frame")
	}
}

// sendEvent encodes and enqueues a single event for this client.
func (c *Client) sendEvent(event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		c.hub.log.Error().Err(err).Str("event", event).Msg("encode failed")
		return
	}
	c.enqueue(data)
}

// closeSend shuts the send channel exactly once, unblocking writePump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump reads frames off the socket and dispatches them until the
// connection dies. Runs as its own goroutine, one per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("conn", c.ID).Msg("read error")
			}
			return
		}
		if !c.limiter.Allow() {
			c.hub.log.Warn().Str("conn", c.ID).Msg("rate limit exceeded, dropping frame")
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			// Malformed frames are dropped, not fatal to the connection.
			c.hub.log.Debug().Err(err).Str("conn", c.ID).Msg("bad frame")
			continue
		}
		c.hub.Dispatch(c, env)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
