package session

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/inklink/boardserver/internal/game"
	"github.com/inklink/boardserver/internal/protocol"
	"github.com/inklink/boardserver/internal/room"
	"github.com/inklink/boardserver/internal/store"
)

const maxChatLen = 500

// Dispatch routes one decoded frame to its handler. Bad payloads are
// dropped and logged; nothing a single connection sends can take the
// process down.
func (h *Hub) Dispatch(c *Client, env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventRoomJoin:
		h.handleRoomJoin(c, env)
	case protocol.EventRoomLeave:
		h.handleRoomLeave(c)
	case protocol.EventRoomSetBackground:
		h.handleSetBackground(c, env)
	case protocol.EventKick:
		h.handleKick(c, env)

	case protocol.EventDrawStart, protocol.EventDrawMove, protocol.EventDrawEnd, protocol.EventDrawText:
		h.handleDrawOp(c, env)
	case protocol.EventDrawClear:
		h.handleDrawClear(c)
	case protocol.EventDrawUndo, protocol.EventDrawRedo:
		h.handleHistoryStep(c, env.Event)
	case protocol.EventDrawSync:
		h.handleDrawSync(c, env)
	case protocol.EventCanvasSave:
		h.handleCanvasSave(c, env)

	case protocol.EventChatSend:
		h.handleChatSend(c, env)
	case protocol.EventReactionSend:
		h.handleReactionSend(c, env)
	case protocol.EventCursorMove:
		h.handleCursorMove(c, env)

	case protocol.EventWebRTCOffer, protocol.EventWebRTCAnswer, protocol.EventWebRTCICE:
		h.handleSignalRelay(c, env)
	case protocol.EventWebRTCToggleMedia:
		h.handleToggleMedia(c, env)

	case protocol.EventGameStart:
		h.handleGameStart(c, env)
	case protocol.EventGamePickWord:
		h.handleGamePickWord(c, env)
	case protocol.EventGameGuess:
		h.handleGameGuess(c, env)
	case protocol.EventGameStop:
		h.handleGameStop(c)
	case protocol.EventGameRejoin:
		h.handleGameRejoin(c, env)

	default:
		h.log.Debug().Str("event", env.Event).Str("conn", c.ID).Msg("unknown event dropped")
	}
}

// memberRoom resolves the room the connection currently occupies.
func (h *Hub) memberRoom(c *Client) (*room.Room, bool) {
	roomID := h.clientRoom(c)
	if roomID == "" {
		return nil, false
	}
	return h.rooms.Get(roomID)
}

func (h *Hub) rejectWith(c *Client, msg string) {
	c.sendEvent(protocol.EventRoomError, protocol.RoomError{Message: msg})
}

func (h *Hub) handleRoomJoin(c *Client, env *protocol.Envelope) {
	var p protocol.RoomJoin
	if err := env.Bind(&p); err != nil || p.RoomID == "" {
		h.log.Debug().Str("conn", c.ID).Msg("bad room:join payload")
		return
	}

	// A connection lives in at most one room.
	if current := h.clientRoom(c); current != "" {
		h.setClientRoom(c, "")
		h.leaveRoom(c, current)
	}

	rm, err := h.rooms.GetOrCreate(p.RoomID)
	if err != nil {
		h.rejectWith(c, "could not open room")
		return
	}

	unlock := h.lockRoom(rm.ID)
	defer unlock()

	// A fresh room may have a saved board under the same code.
	if depth, _ := rm.HistoryDepth(); depth == 1 && rm.CurrentSnapshot() == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if data, err := h.store.Load(ctx, rm.Code); err == nil && data != "" {
			rm.CommitSnapshot(data)
		} else if err != nil && err != store.ErrNotFound {
			h.log.Error().Err(err).Str("room", rm.ID).Msg("restore canvas failed")
		}
		cancel()
	}

	member, err := rm.Join(c.ID, c.Username, p.UserColor)
	if err != nil {
		h.rejectWith(c, "room is full")
		return
	}
	c.Color = member.Color
	h.setClientRoom(c, rm.ID)

	me := protocol.MemberInfo{
		SocketID: member.ID,
		Username: member.Username,
		Color:    member.Color,
		IsHost:   member.IsHost,
	}
	c.sendEvent(protocol.EventRoomJoined, protocol.RoomJoined{
		Room: protocol.RoomInfo{
			Name:        rm.Name,
			Code:        rm.Code,
			ChatHistory: rm.ChatHistory(),
			CanvasData:  rm.CurrentSnapshot(),
			Settings:    rm.Settings(),
		},
		Users: rosterOf(rm),
		Me:    me,
	})
	h.BroadcastToRoom(rm.ID, protocol.EventRoomUserJoined, protocol.RoomUserJoined{
		User:  me,
		Users: rosterOf(rm),
	}, c.ID)
	h.systemMessage(rm, member.Username+" joined the room")

	if g, ok := h.gameFor(rm.ID); ok && g.Active() {
		g.SyncFor(c.ID)
	}
	h.log.Info().Str("conn", c.ID).Str("room", rm.ID).Str("code", rm.Code).Msg("joined room")
}

func (h *Hub) handleRoomLeave(c *Client) {
	roomID := h.clientRoom(c)
	if roomID == "" {
		return
	}
	h.setClientRoom(c, "")
	h.leaveRoom(c, roomID)
}

// handleSetBackground stores a host-picked canvas background and fans
// the refreshed settings out so every screen switches together.
func (h *Hub) handleSetBackground(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if !rm.IsHost(c.ID) {
		h.rejectWith(c, "only the host can change the background")
		return
	}
	var p protocol.RoomSetBackground
	if err := env.Bind(&p); err != nil || p.Background == "" {
		return
	}

	unlock := h.lockRoom(rm.ID)
	defer unlock()
	settings := rm.SetBackground(p.Background)
	h.BroadcastToRoom(rm.ID, protocol.EventSettingsUpdated, protocol.SettingsUpdated{Settings: settings}, "")
}

func (h *Hub) handleKick(c *Client, env *protocol.Envelope) {
	var p protocol.Kick
	if err := env.Bind(&p); err != nil {
		return
	}
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if !rm.IsHost(c.ID) {
		h.rejectWith(c, "only the host can kick members")
		return
	}
	if p.TargetSocketID == c.ID {
		return
	}
	target, ok := h.client(p.TargetSocketID)
	if !ok || h.clientRoom(target) != rm.ID {
		// Target already gone, nothing to do.
		return
	}

	target.sendEvent(protocol.EventKicked, nil)
	h.setClientRoom(target, "")
	h.leaveRoom(target, rm.ID)
	h.log.Info().Str("host", c.ID).Str("target", target.ID).Str("room", rm.ID).Msg("member kicked")
}

// handleDrawOp relays stroke events. While a game turn is live only
// the drawer's strokes pass through.
func (h *Hub) handleDrawOp(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if g, running := h.gameFor(rm.ID); running && !g.AllowDraw(c.ID) {
		return
	}

	var op protocol.DrawOp
	if err := env.Bind(&op); err != nil {
		h.log.Debug().Str("conn", c.ID).Str("event", env.Event).Msg("bad draw payload")
		return
	}
	op.Normalize()
	op.RoomID = ""
	op.SocketID = c.ID

	rm.Touch()
	h.BroadcastToRoom(rm.ID, env.Event, op, c.ID)
}

func (h *Hub) handleDrawClear(c *Client) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if g, running := h.gameFor(rm.ID); running && !g.AllowDraw(c.ID) {
		return
	}

	unlock := h.lockRoom(rm.ID)
	defer unlock()
	rm.ClearCanvas()
	h.BroadcastToRoom(rm.ID, protocol.EventDrawClear, nil, c.ID)
}

// handleHistoryStep applies undo/redo to the shared stack and pushes
// the restored snapshot to everyone, the issuer included.
func (h *Hub) handleHistoryStep(c *Client, event string) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}

	unlock := h.lockRoom(rm.ID)
	defer unlock()

	var snapshot string
	var stepped bool
	if event == protocol.EventDrawUndo {
		snapshot, stepped = rm.Undo()
	} else {
		snapshot, stepped = rm.Redo()
	}
	if !stepped {
		return
	}
	h.BroadcastToRoom(rm.ID, event, protocol.HistoryStep{Snapshot: snapshot}, "")
}

// handleDrawSync commits a member's full canvas as the new canonical
// snapshot and fans it out.
func (h *Hub) handleDrawSync(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.CanvasSync
	if err := env.Bind(&p); err != nil {
		return
	}

	unlock := h.lockRoom(rm.ID)
	defer unlock()
	rm.CommitSnapshot(p.CanvasData)
	h.BroadcastToRoom(rm.ID, protocol.EventDrawSyncState, protocol.CanvasSync{CanvasData: p.CanvasData}, c.ID)
}

func (h *Hub) handleCanvasSave(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.CanvasSync
	if err := env.Bind(&p); err != nil || p.CanvasData == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.Save(ctx, rm.Code, p.CanvasData); err != nil {
		h.log.Error().Err(err).Str("room", rm.ID).Msg("canvas save failed")
		h.rejectWith(c, "could not save the board")
	}
}

func (h *Hub) handleChatSend(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.ChatSend
	if err := env.Bind(&p); err != nil {
		return
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return
	}
	if len(text) > maxChatLen {
		text = text[:maxChatLen]
	}

	unlock := h.lockRoom(rm.ID)
	defer unlock()

	msg := protocol.ChatMessage{
		Username:  c.Username,
		Color:     c.Color,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		Type:      "user",
	}
	rm.AppendChat(msg)
	h.BroadcastToRoom(rm.ID, protocol.EventChatMessage, msg, "")
}

// handleReactionSend fans a reaction out at a server-chosen position
// so every screen shows it somewhere plausible.
func (h *Hub) handleReactionSend(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.ReactionSend
	if err := env.Bind(&p); err != nil || p.Emoji == "" {
		return
	}

	h.BroadcastToRoom(rm.ID, protocol.EventReactionShow, protocol.ReactionShow{
		Emoji:    p.Emoji,
		X:        10 + rand.Float64()*80,
		Y:        20 + rand.Float64()*60,
		Username: c.Username,
	}, "")
}

func (h *Hub) handleCursorMove(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.CursorMove
	if err := env.Bind(&p); err != nil {
		return
	}
	p.RoomID = ""
	p.SocketID = c.ID
	p.Username = c.Username
	p.Color = c.Color
	h.BroadcastToRoom(rm.ID, protocol.EventCursorMove, p, c.ID)
}

// handleSignalRelay forwards offers, answers, and candidates to one
// peer in the same room. The server never inspects the SDP. A vanished
// target is a silent drop; the leaver's room:user_left already told
// the caller to tear down.
func (h *Hub) handleSignalRelay(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.SignalRelay
	if err := env.Bind(&p); err != nil || p.Target == "" {
		return
	}
	target, ok := h.client(p.Target)
	if !ok || h.clientRoom(target) != rm.ID {
		return
	}

	p.Caller = c.ID
	if env.Event == protocol.EventWebRTCOffer || env.Event == protocol.EventWebRTCAnswer {
		h.mesh.AddLink(rm.ID, c.ID, p.Target)
	}
	target.sendEvent(env.Event, p)
}

func (h *Hub) handleToggleMedia(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	var p protocol.ToggleMedia
	if err := env.Bind(&p); err != nil {
		return
	}
	p.RoomID = ""
	p.SocketID = c.ID
	h.BroadcastToRoom(rm.ID, protocol.EventWebRTCToggleMedia, p, c.ID)
}

func (h *Hub) handleGameStart(c *Client, env *protocol.Envelope) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if !rm.IsHost(c.ID) {
		h.rejectWith(c, "only the host can start the game")
		return
	}
	var p protocol.GameStart
	if err := env.Bind(&p); err != nil {
		return
	}

	// Holding the room lock keeps the roster snapshot stable until the
	// engine is registered.
	unlock := h.lockRoom(rm.ID)
	defer unlock()

	if g, exists := h.gameFor(rm.ID); exists && g.Active() {
		h.rejectWith(c, "a game is already running")
		return
	}

	members := rm.Members()
	roster := make([]game.RosterEntry, 0, len(members))
	for _, m := range members {
		roster = append(roster, game.RosterEntry{ID: m.ID, Username: m.Username})
	}

	g := game.New(h.opts.GameConfig, roomEmitter{hub: h, roomID: rm.ID}, h.log.With().Str("room", rm.ID).Logger())
	if err := g.Start(roster, p.Rounds, p.TurnTime); err != nil {
		h.rejectWith(c, "need at least two members to play")
		return
	}
	h.mu.Lock()
	h.games[rm.ID] = g
	h.mu.Unlock()
}

func (h *Hub) handleGamePickWord(c *Client, env *protocol.Envelope) {
	g, ok := h.memberGame(c)
	if !ok {
		return
	}
	var p protocol.GamePickWord
	if err := env.Bind(&p); err != nil {
		return
	}
	g.PickWord(c.ID, p.Word)
}

func (h *Hub) handleGameGuess(c *Client, env *protocol.Envelope) {
	g, ok := h.memberGame(c)
	if !ok {
		return
	}
	var p protocol.GameGuess
	if err := env.Bind(&p); err != nil {
		return
	}
	g.Guess(c.ID, p.Guess)
}

func (h *Hub) handleGameStop(c *Client) {
	rm, ok := h.memberRoom(c)
	if !ok {
		return
	}
	if !rm.IsHost(c.ID) {
		h.rejectWith(c, "only the host can stop the game")
		return
	}
	if g, ok := h.gameFor(rm.ID); ok {
		g.Stop()
	}
}

func (h *Hub) handleGameRejoin(c *Client, env *protocol.Envelope) {
	g, ok := h.memberGame(c)
	if !ok {
		return
	}
	var p protocol.GameRejoin
	if err := env.Bind(&p); err != nil {
		return
	}
	username := p.Username
	if username == "" {
		username = c.Username
	}
	if !g.Rejoin(username, c.ID) {
		// Not a returning player, give them the spectator view.
		g.SyncFor(c.ID)
	}
}

// memberGame resolves the engine for the connection's current room.
func (h *Hub) memberGame(c *Client) (*game.Game, bool) {
	roomID := h.clientRoom(c)
	if roomID == "" {
		return nil, false
	}
	return h.gameFor(roomID)
}
