package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/inklink/boardserver/internal/game"
	"github.com/inklink/boardserver/internal/protocol"
	"github.com/inklink/boardserver/internal/room"
	"github.com/inklink/boardserver/internal/signal"
	"github.com/inklink/boardserver/internal/store"
)

type fixture struct {
	hub   *Hub
	rooms *room.Registry
	store *store.Memory
	mesh  *signal.Mesh
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rooms := room.NewRegistry(room.DefaultConfig())
	t.Cleanup(rooms.Close)
	mem := store.NewMemory()
	mesh := signal.NewMesh()
	hub := NewHub(rooms, mem, mesh, Options{GameConfig: game.DefaultConfig()}, zerolog.Nop())
	return &fixture{hub: hub, rooms: rooms, store: mem, mesh: mesh}
}

// connect registers a hub client without a real socket. Frames pile up
// in the send buffer where tests can inspect them.
func (f *fixture) connect(id, username string) *Client {
	c := &Client{
		ID:       id,
		Username: username,
		hub:      f.hub,
		send:     make(chan []byte, sendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(1000), 1000),
	}
	f.hub.mu.Lock()
	f.hub.clients[c.ID] = c
	f.hub.mu.Unlock()
	return c
}

func (f *fixture) dispatch(t *testing.T, c *Client, event string, payload any) {
	t.Helper()
	data, err := protocol.Encode(event, payload)
	require.NoError(t, err)
	env, err := protocol.Decode(data)
	require.NoError(t, err)
	f.hub.Dispatch(c, env)
}

// received drains and decodes everything queued for a client.
func received(t *testing.T, c *Client) []*protocol.Envelope {
	t.Helper()
	var out []*protocol.Envelope
	for {
		select {
		case data := <-c.send:
			env, err := protocol.Decode(data)
			require.NoError(t, err)
			out = append(out, env)
		default:
			return out
		}
	}
}

func lastOf(envs []*protocol.Envelope, event string) (*protocol.Envelope, bool) {
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == event {
			return envs[i], true
		}
	}
	return nil, false
}

func countOf(envs []*protocol.Envelope, event string) int {
	n := 0
	for _, e := range envs {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (f *fixture) join(t *testing.T, c *Client, roomKey string) {
	t.Helper()
	f.dispatch(t, c, protocol.EventRoomJoin, protocol.RoomJoin{RoomID: roomKey, UserColor: "#123456"})
}

func TestJoinCreatesRoomAndReplies(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")

	f.join(t, alice, "A1B2C3")
	envs := received(t, alice)

	joined, ok := lastOf(envs, protocol.EventRoomJoined)
	require.True(t, ok)
	var p protocol.RoomJoined
	require.NoError(t, joined.Bind(&p))
	assert.Equal(t, "A1B2C3", p.Room.Code)
	assert.Equal(t, "alice", p.Me.Username)
	assert.Equal(t, "#123456", p.Me.Color)
	assert.True(t, p.Me.IsHost)
	require.Len(t, p.Users, 1)

	// The joiner also sees the system chat line.
	_, ok = lastOf(envs, protocol.EventChatMessage)
	assert.True(t, ok)
}

func TestSecondJoinAnnouncedToFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")

	f.join(t, alice, "A1B2C3")
	received(t, alice)
	f.join(t, bob, "A1B2C3")

	aliceEnvs := received(t, alice)
	userJoined, ok := lastOf(aliceEnvs, protocol.EventRoomUserJoined)
	require.True(t, ok)
	var p protocol.RoomUserJoined
	require.NoError(t, userJoined.Bind(&p))
	assert.Equal(t, "bob", p.User.Username)
	assert.False(t, p.User.IsHost)
	assert.Len(t, p.Users, 2)

	// Bob's own frames carry no user_joined echo.
	bobEnvs := received(t, bob)
	_, ok = lastOf(bobEnvs, protocol.EventRoomUserJoined)
	assert.False(t, ok)
}

func TestJoinFullRoomRejected(t *testing.T) {
	cfg := room.DefaultConfig()
	cfg.MaxMembers = 1
	rooms := room.NewRegistry(cfg)
	t.Cleanup(rooms.Close)
	hub := NewHub(rooms, store.NewMemory(), signal.NewMesh(), Options{}, zerolog.Nop())
	f := &fixture{hub: hub, rooms: rooms}

	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")

	envs := received(t, bob)
	_, joined := lastOf(envs, protocol.EventRoomJoined)
	assert.False(t, joined)
	errEnv, ok := lastOf(envs, protocol.EventRoomError)
	require.True(t, ok)
	var p protocol.RoomError
	require.NoError(t, errEnv.Bind(&p))
	assert.Contains(t, p.Message, "full")
}

func TestDrawBroadcastStampsSenderAndExcludesThem(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)
	received(t, bob)

	f.dispatch(t, alice, protocol.EventDrawStart, protocol.DrawOp{
		RoomID: "A1B2C3", X: 10, Y: 20, Tool: "brush", Color: "#000", Size: 400,
	})

	bobEnvs := received(t, bob)
	frame, ok := lastOf(bobEnvs, protocol.EventDrawStart)
	require.True(t, ok)
	var op protocol.DrawOp
	require.NoError(t, frame.Bind(&op))
	assert.Equal(t, "conn-1", op.SocketID)
	assert.Empty(t, op.RoomID)
	assert.Equal(t, float64(200), op.Size, "oversized brush clamped")

	aliceEnvs := received(t, alice)
	_, echoed := lastOf(aliceEnvs, protocol.EventDrawStart)
	assert.False(t, echoed, "sender must not receive their own stroke")
}

func TestUndoRedoGoesToEveryone(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")

	f.dispatch(t, alice, protocol.EventDrawSync, protocol.CanvasSync{RoomID: "A1B2C3", CanvasData: "snap-1"})
	f.dispatch(t, alice, protocol.EventDrawSync, protocol.CanvasSync{RoomID: "A1B2C3", CanvasData: "snap-2"})
	received(t, alice)
	received(t, bob)

	f.dispatch(t, bob, protocol.EventDrawUndo, protocol.HistoryStep{RoomID: "A1B2C3"})

	for _, c := range []*Client{alice, bob} {
		envs := received(t, c)
		frame, ok := lastOf(envs, protocol.EventDrawUndo)
		require.True(t, ok, "undo must reach %s", c.Username)
		var step protocol.HistoryStep
		require.NoError(t, frame.Bind(&step))
		assert.Equal(t, "snap-1", step.Snapshot)
	}

	f.dispatch(t, alice, protocol.EventDrawRedo, protocol.HistoryStep{RoomID: "A1B2C3"})
	envs := received(t, bob)
	frame, ok := lastOf(envs, protocol.EventDrawRedo)
	require.True(t, ok)
	var step protocol.HistoryStep
	require.NoError(t, frame.Bind(&step))
	assert.Equal(t, "snap-2", step.Snapshot)
}

func TestUndoAtBottomIsSilent(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	f.join(t, alice, "A1B2C3")
	received(t, alice)

	f.dispatch(t, alice, protocol.EventDrawUndo, protocol.HistoryStep{RoomID: "A1B2C3"})
	envs := received(t, alice)
	assert.Equal(t, 0, countOf(envs, protocol.EventDrawUndo))
}

func TestDrawSyncUpdatesCanonicalSnapshot(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	received(t, alice)

	f.dispatch(t, alice, protocol.EventDrawSync, protocol.CanvasSync{RoomID: "A1B2C3", CanvasData: "snap-x"})

	// A late joiner gets the committed canvas in room:joined.
	f.join(t, bob, "A1B2C3")
	envs := received(t, bob)
	joined, ok := lastOf(envs, protocol.EventRoomJoined)
	require.True(t, ok)
	var p protocol.RoomJoined
	require.NoError(t, joined.Bind(&p))
	assert.Equal(t, "snap-x", p.Room.CanvasData)
}

func TestCanvasSavePersists(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	f.join(t, alice, "A1B2C3")

	f.dispatch(t, alice, protocol.EventCanvasSave, protocol.CanvasSync{RoomID: "A1B2C3", CanvasData: "saved-board"})

	data, err := f.store.Load(context.Background(), "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, "saved-board", data)
}

func TestJoinRestoresPersistedCanvas(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), "A1B2C3", "old-board"))

	alice := f.connect("conn-1", "alice")
	f.join(t, alice, "A1B2C3")

	envs := received(t, alice)
	joined, ok := lastOf(envs, protocol.EventRoomJoined)
	require.True(t, ok)
	var p protocol.RoomJoined
	require.NoError(t, joined.Bind(&p))
	assert.Equal(t, "old-board", p.Room.CanvasData)
}

func TestEmptyRoomPersistsCanvasOnLeave(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	f.join(t, alice, "A1B2C3")
	f.dispatch(t, alice, protocol.EventDrawSync, protocol.CanvasSync{RoomID: "A1B2C3", CanvasData: "work-in-progress"})

	f.dispatch(t, alice, protocol.EventRoomLeave, nil)

	data, err := f.store.Load(context.Background(), "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, "work-in-progress", data)
}

func TestChatBroadcastIncludesSender(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)
	received(t, bob)

	f.dispatch(t, alice, protocol.EventChatSend, protocol.ChatSend{RoomID: "A1B2C3", Text: "  hello board  "})

	for _, c := range []*Client{alice, bob} {
		envs := received(t, c)
		frame, ok := lastOf(envs, protocol.EventChatMessage)
		require.True(t, ok)
		var msg protocol.ChatMessage
		require.NoError(t, frame.Bind(&msg))
		assert.Equal(t, "alice", msg.Username)
		assert.Equal(t, "hello board", msg.Text)
		assert.Equal(t, "user", msg.Type)
		assert.NotZero(t, msg.Timestamp)
	}
}

func TestReactionGetsServerPosition(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, bob)

	f.dispatch(t, alice, protocol.EventReactionSend, protocol.ReactionSend{RoomID: "A1B2C3", Emoji: "🎉"})

	envs := received(t, bob)
	frame, ok := lastOf(envs, protocol.EventReactionShow)
	require.True(t, ok)
	var p protocol.ReactionShow
	require.NoError(t, frame.Bind(&p))
	assert.Equal(t, "🎉", p.Emoji)
	assert.Equal(t, "alice", p.Username)
	assert.GreaterOrEqual(t, p.X, 10.0)
	assert.LessOrEqual(t, p.X, 90.0)
	assert.GreaterOrEqual(t, p.Y, 20.0)
	assert.LessOrEqual(t, p.Y, 80.0)
}

func TestCursorRelayExcludesSender(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)
	received(t, bob)

	f.dispatch(t, alice, protocol.EventCursorMove, protocol.CursorMove{
		RoomID: "A1B2C3", X: 100, Y: 50, CanvasWidth: 800, CanvasHeight: 600,
	})

	envs := received(t, bob)
	frame, ok := lastOf(envs, protocol.EventCursorMove)
	require.True(t, ok)
	var p protocol.CursorMove
	require.NoError(t, frame.Bind(&p))
	assert.Equal(t, "conn-1", p.SocketID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 800.0, p.CanvasWidth)

	assert.Equal(t, 0, countOf(received(t, alice), protocol.EventCursorMove))
}

func TestSignalRelayIsTargeted(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	carol := f.connect("conn-3", "carol")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	f.join(t, carol, "A1B2C3")
	received(t, alice)
	received(t, bob)
	received(t, carol)

	f.dispatch(t, alice, protocol.EventWebRTCOffer, protocol.SignalRelay{
		Target: "conn-2", SDP: []byte(`{"type":"offer"}`),
	})

	bobEnvs := received(t, bob)
	frame, ok := lastOf(bobEnvs, protocol.EventWebRTCOffer)
	require.True(t, ok)
	var p protocol.SignalRelay
	require.NoError(t, frame.Bind(&p))
	assert.Equal(t, "conn-1", p.Caller)

	assert.Equal(t, 0, countOf(received(t, carol), protocol.EventWebRTCOffer))
	assert.True(t, f.mesh.Linked(f.roomID(t), "conn-1", "conn-2"))
}

func (f *fixture) roomID(t *testing.T) string {
	t.Helper()
	rm, ok := f.rooms.GetByCode("A1B2C3")
	require.True(t, ok)
	return rm.ID
}

func TestSignalRelayToGoneTargetIsSilent(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	f.join(t, alice, "A1B2C3")
	received(t, alice)

	f.dispatch(t, alice, protocol.EventWebRTCOffer, protocol.SignalRelay{
		Target: "conn-404", SDP: []byte(`{"type":"offer"}`),
	})
	envs := received(t, alice)
	assert.Equal(t, 0, countOf(envs, protocol.EventRoomError))
}

func TestSignalRelayBlockedAcrossRooms(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	mallory := f.connect("conn-2", "mallory")
	f.join(t, alice, "A1B2C3")
	f.join(t, mallory, "ZZZZ99")
	received(t, alice)

	f.dispatch(t, mallory, protocol.EventWebRTCOffer, protocol.SignalRelay{
		Target: "conn-1", SDP: []byte(`{"type":"offer"}`),
	})
	assert.Equal(t, 0, countOf(received(t, alice), protocol.EventWebRTCOffer))
}

func TestToggleMediaBroadcast(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, bob)

	f.dispatch(t, alice, protocol.EventWebRTCToggleMedia, protocol.ToggleMedia{
		RoomID: "A1B2C3", Type: "audio", IsEnabled: false,
	})

	envs := received(t, bob)
	frame, ok := lastOf(envs, protocol.EventWebRTCToggleMedia)
	require.True(t, ok)
	var p protocol.ToggleMedia
	require.NoError(t, frame.Bind(&p))
	assert.Equal(t, "conn-1", p.SocketID)
	assert.Equal(t, "audio", p.Type)
	assert.False(t, p.IsEnabled)
}

func TestSetBackgroundBroadcastsSettings(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)
	received(t, bob)

	// Non-host change is rejected.
	f.dispatch(t, bob, protocol.EventRoomSetBackground, protocol.RoomSetBackground{RoomID: "A1B2C3", Background: "dots"})
	_, ok := lastOf(received(t, bob), protocol.EventRoomError)
	assert.True(t, ok)

	f.dispatch(t, alice, protocol.EventRoomSetBackground, protocol.RoomSetBackground{RoomID: "A1B2C3", Background: "grid"})
	for _, c := range []*Client{alice, bob} {
		envs := received(t, c)
		frame, ok := lastOf(envs, protocol.EventSettingsUpdated)
		require.True(t, ok, "%s should see settings:updated", c.Username)
		var p protocol.SettingsUpdated
		require.NoError(t, frame.Bind(&p))
		assert.Equal(t, "grid", p.Settings["bg"])
	}

	// A late joiner receives the settings in the room snapshot.
	carol := f.connect("conn-3", "carol")
	f.join(t, carol, "A1B2C3")
	joined, ok := lastOf(received(t, carol), protocol.EventRoomJoined)
	require.True(t, ok)
	var rj protocol.RoomJoined
	require.NoError(t, joined.Bind(&rj))
	assert.Equal(t, "grid", rj.Room.Settings["bg"])
}

func TestKickRequiresHost(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, bob)

	f.dispatch(t, bob, protocol.EventKick, protocol.Kick{RoomID: "A1B2C3", TargetSocketID: "conn-1"})
	envs := received(t, bob)
	_, ok := lastOf(envs, protocol.EventRoomError)
	assert.True(t, ok)

	rm, _ := f.rooms.GetByCode("A1B2C3")
	assert.Equal(t, 2, rm.MemberCount())
}

func TestHostKickEjectsTarget(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)
	received(t, bob)

	f.dispatch(t, alice, protocol.EventKick, protocol.Kick{RoomID: "A1B2C3", TargetSocketID: "conn-2"})

	bobEnvs := received(t, bob)
	_, ok := lastOf(bobEnvs, protocol.EventKicked)
	assert.True(t, ok)

	rm, _ := f.rooms.GetByCode("A1B2C3")
	assert.Equal(t, 1, rm.MemberCount())
	assert.Empty(t, f.hub.clientRoom(bob))

	aliceEnvs := received(t, alice)
	left, ok := lastOf(aliceEnvs, protocol.EventRoomUserLeft)
	require.True(t, ok)
	var p protocol.RoomUserLeft
	require.NoError(t, left.Bind(&p))
	assert.Equal(t, "bob", p.Username)
}

func TestLeaveHandsHostOver(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	time.Sleep(time.Millisecond)
	f.join(t, bob, "A1B2C3")
	received(t, bob)

	f.dispatch(t, alice, protocol.EventRoomLeave, nil)

	envs := received(t, bob)
	left, ok := lastOf(envs, protocol.EventRoomUserLeft)
	require.True(t, ok)
	var p protocol.RoomUserLeft
	require.NoError(t, left.Bind(&p))
	require.Len(t, p.Users, 1)
	assert.True(t, p.Users[0].IsHost)
	assert.Equal(t, "bob", p.Users[0].Username)
}

func TestDisconnectCleansUp(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	f.dispatch(t, alice, protocol.EventWebRTCOffer, protocol.SignalRelay{
		Target: "conn-2", SDP: []byte(`{}`),
	})
	received(t, alice)

	f.hub.Disconnect(bob)

	rm, _ := f.rooms.GetByCode("A1B2C3")
	assert.Equal(t, 1, rm.MemberCount())
	assert.Equal(t, 0, f.mesh.LinkCount(rm.ID))

	envs := received(t, alice)
	_, ok := lastOf(envs, protocol.EventRoomUserLeft)
	assert.True(t, ok)
}

func TestGameStartRequiresHostAndQuorum(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)
	received(t, bob)

	// Non-host cannot start.
	f.dispatch(t, bob, protocol.EventGameStart, protocol.GameStart{RoomID: "A1B2C3"})
	_, ok := lastOf(received(t, bob), protocol.EventRoomError)
	assert.True(t, ok)

	// Host can.
	f.dispatch(t, alice, protocol.EventGameStart, protocol.GameStart{RoomID: "A1B2C3", Rounds: 1, TurnTime: 30})
	for _, c := range []*Client{alice, bob} {
		envs := received(t, c)
		_, ok := lastOf(envs, protocol.EventGameStarted)
		assert.True(t, ok, "%s should see game:started", c.Username)
		_, ok = lastOf(envs, protocol.EventGameChoosing)
		assert.True(t, ok)
	}

	// Starting again while running is rejected.
	f.dispatch(t, alice, protocol.EventGameStart, protocol.GameStart{RoomID: "A1B2C3"})
	_, ok = lastOf(received(t, alice), protocol.EventRoomError)
	assert.True(t, ok)

	f.dispatch(t, alice, protocol.EventGameStop, protocol.GameStop{RoomID: "A1B2C3"})
	_, ok = lastOf(received(t, bob), protocol.EventGameStopped)
	assert.True(t, ok)
}

func TestSoloGameStartRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	f.join(t, alice, "A1B2C3")
	received(t, alice)

	f.dispatch(t, alice, protocol.EventGameStart, protocol.GameStart{RoomID: "A1B2C3"})
	envs := received(t, alice)
	_, started := lastOf(envs, protocol.EventGameStarted)
	assert.False(t, started)
	_, rejected := lastOf(envs, protocol.EventRoomError)
	assert.True(t, rejected)

	// The rejected start must not leave an idle engine behind.
	_, exists := f.hub.gameFor(f.roomID(t))
	assert.False(t, exists)
}

func TestGuesserDrawLockedDuringTurn(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	f.dispatch(t, alice, protocol.EventGameStart, protocol.GameStart{RoomID: "A1B2C3", Rounds: 1, TurnTime: 30})
	received(t, alice)
	received(t, bob)

	// Alice is the drawer; bob's strokes are suppressed.
	f.dispatch(t, bob, protocol.EventDrawStart, protocol.DrawOp{RoomID: "A1B2C3", X: 1, Y: 1, Tool: "brush"})
	assert.Equal(t, 0, countOf(received(t, alice), protocol.EventDrawStart))

	f.dispatch(t, alice, protocol.EventDrawStart, protocol.DrawOp{RoomID: "A1B2C3", X: 1, Y: 1, Tool: "brush"})
	assert.Equal(t, 1, countOf(received(t, bob), protocol.EventDrawStart))
}

func TestLateJoinerGetsGameSync(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	f.dispatch(t, alice, protocol.EventGameStart, protocol.GameStart{RoomID: "A1B2C3", Rounds: 1, TurnTime: 30})

	carol := f.connect("conn-3", "carol")
	f.join(t, carol, "A1B2C3")

	envs := received(t, carol)
	frame, ok := lastOf(envs, protocol.EventGameSync)
	require.True(t, ok)
	var p protocol.GameSync
	require.NoError(t, frame.Bind(&p))
	assert.Equal(t, "choosing", p.Status)
	assert.Equal(t, "alice", p.Drawer)
	assert.Empty(t, p.Word)
}

func TestSwitchingRoomsLeavesTheOld(t *testing.T) {
	f := newFixture(t)
	alice := f.connect("conn-1", "alice")
	bob := f.connect("conn-2", "bob")
	f.join(t, alice, "A1B2C3")
	f.join(t, bob, "A1B2C3")
	received(t, alice)

	f.join(t, bob, "XYZ789")

	rm, _ := f.rooms.GetByCode("A1B2C3")
	assert.Equal(t, 1, rm.MemberCount())
	envs := received(t, alice)
	_, ok := lastOf(envs, protocol.EventRoomUserLeft)
	assert.True(t, ok)
}
