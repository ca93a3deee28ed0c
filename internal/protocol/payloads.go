package protocol

import "encoding/json"

// MemberInfo is a roster entry as sent to clients.
type MemberInfo struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
	Color    string `json:"color"`
	IsHost   bool   `json:"isHost"`
}

// RoomInfo is the room snapshot included in room:joined.
type RoomInfo struct {
	Name        string         `json:"name"`
	Code        string         `json:"code"`
	ChatHistory []ChatMessage  `json:"chatHistory"`
	CanvasData  string         `json:"canvasData"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// RoomJoin is the client's request to enter a room.
type RoomJoin struct {
	RoomID    string `json:"roomId"`
	UserColor string `json:"userColor"`
}

// RoomJoined answers a successful room:join.
type RoomJoined struct {
	Room  RoomInfo     `json:"room"`
	Users []MemberInfo `json:"users"`
	Me    MemberInfo   `json:"me"`
}

// RoomUserJoined announces a new member to the rest of the room.
type RoomUserJoined struct {
	User  MemberInfo   `json:"user"`
	Users []MemberInfo `json:"users"`
}

// RoomUserLeft announces a departure with the refreshed roster.
type RoomUserLeft struct {
	Username string       `json:"username"`
	Users    []MemberInfo `json:"users"`
}

// RoomError is a non-fatal, user-visible rejection.
type RoomError struct {
	Message string `json:"message"`
}

// RoomSetBackground is a host request to change the shared canvas
// background.
type RoomSetBackground struct {
	RoomID     string `json:"roomId"`
	Background string `json:"bg"`
}

// SettingsUpdated broadcasts the room's refreshed settings.
type SettingsUpdated struct {
	Settings map[string]any `json:"settings"`
}

// Kick is a host request to eject a member.
type Kick struct {
	RoomID         string `json:"roomId"`
	TargetSocketID string `json:"targetSocketId"`
}

// DrawOp carries a stroke event. The same shape serves start, move,
// end, and text; unused fields are zero. SocketID is stamped by the
// server on the way out so receivers can key per-peer stroke state.
type DrawOp struct {
	RoomID   string  `json:"roomId,omitempty"`
	SocketID string  `json:"socketId,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Tool     string  `json:"tool,omitempty"`
	Color    string  `json:"color,omitempty"`
	Size     float64 `json:"size,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// maxBrushSize bounds the stroke width a client may request.
const maxBrushSize = 200

// Normalize clamps client-supplied fields to safe ranges.
func (op *DrawOp) Normalize() {
	if op.Size < 1 {
		op.Size = 1
	}
	if op.Size > maxBrushSize {
		op.Size = maxBrushSize
	}
}

// DrawClear asks for a full canvas wipe.
type DrawClear struct {
	RoomID string `json:"roomId"`
}

// HistoryStep is both the client's undo/redo request (with its local
// snapshot, kept for forward compatibility) and the server's broadcast
// of the authoritative snapshot to restore.
type HistoryStep struct {
	RoomID   string `json:"roomId,omitempty"`
	Snapshot string `json:"snapshot"`
}

// CanvasSync carries a full canvas image, either a member's commit
// (draw:sync, canvas:save) or the server's push (draw:sync_state).
type CanvasSync struct {
	RoomID     string `json:"roomId,omitempty"`
	CanvasData string `json:"canvasData"`
}

// ChatSend is an inbound chat line.
type ChatSend struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// ChatMessage is a chat line as stored and broadcast. Type is "user"
// for member messages and "system" for join/leave/game notices.
type ChatMessage struct {
	Username  string `json:"username"`
	Color     string `json:"color"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
}

// ReactionSend is an inbound emoji reaction.
type ReactionSend struct {
	RoomID string `json:"roomId"`
	Emoji  string `json:"emoji"`
}

// ReactionShow is the broadcast reaction with a server-chosen position.
type ReactionShow struct {
	Emoji    string  `json:"emoji"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Username string  `json:"username"`
}

// CursorMove relays a member's pointer position. Coordinates are
// normalized against the sender's canvas dimensions so differently
// sized canvases still line up.
type CursorMove struct {
	RoomID       string  `json:"roomId,omitempty"`
	SocketID     string  `json:"socketId,omitempty"`
	Username     string  `json:"username,omitempty"`
	Color        string  `json:"color,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	CanvasWidth  float64 `json:"cw"`
	CanvasHeight float64 `json:"ch"`
}

// SignalRelay is a targeted webrtc:offer/answer/ice-candidate frame.
// SDP and Candidate are opaque to the server and relayed as-is.
type SignalRelay struct {
	Target    string          `json:"target"`
	Caller    string          `json:"caller,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// ToggleMedia announces a member muting or unmuting a track kind.
type ToggleMedia struct {
	RoomID    string `json:"roomId,omitempty"`
	SocketID  string `json:"socketId,omitempty"`
	Type      string `json:"type"`
	IsEnabled bool   `json:"isEnabled"`
}

// GameStart is the host's request to begin a match.
type GameStart struct {
	RoomID   string `json:"roomId"`
	Rounds   int    `json:"rounds"`
	TurnTime int    `json:"turnTime"`
}

// GamePickWord is the drawer's word choice.
type GamePickWord struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

// GameGuess is a member's guess attempt.
type GameGuess struct {
	RoomID string `json:"roomId"`
	Guess  string `json:"guess"`
}

// GameStop is the host's request to abort a match.
type GameStop struct {
	RoomID string `json:"roomId"`
}

// GameRejoin asks for a full game:sync after a reconnect.
type GameRejoin struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

// PlayerScore is a scoreboard row.
type PlayerScore struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// GameStarted confirms a match has begun.
type GameStarted struct {
	Players  []PlayerScore `json:"players"`
	Rounds   int           `json:"rounds"`
	TurnTime int           `json:"turnTime"`
}

// GameChoosing announces the choosing phase. Words is only populated
// on the frame sent to the drawer.
type GameChoosing struct {
	Drawer         string   `json:"drawer"`
	DrawerSocketID string   `json:"drawerSocketId"`
	Round          int      `json:"round"`
	MaxRounds      int      `json:"maxRounds"`
	Words          []string `json:"words,omitempty"`
}

// GameYouDraw privately tells the drawer the picked word.
type GameYouDraw struct {
	Word string `json:"word"`
}

// GameRoundStart opens the drawing phase with the masked word.
type GameRoundStart struct {
	Shown          string `json:"shown"`
	WordLen        int    `json:"wordLen"`
	Drawer         string `json:"drawer"`
	DrawerSocketID string `json:"drawerSocketId"`
}

// GameTick is the once-per-second countdown.
type GameTick struct {
	T int `json:"t"`
}

// GameHint carries the masked word with more letters revealed.
type GameHint struct {
	Shown string `json:"shown"`
}

// GameCorrectGuess announces a solver without revealing the word.
type GameCorrectGuess struct {
	Username string        `json:"username"`
	Pts      int           `json:"pts"`
	Players  []PlayerScore `json:"players"`
}

// GameYouGuessed privately confirms the word to the solver.
type GameYouGuessed struct {
	Word string `json:"word"`
	Pts  int    `json:"pts"`
}

// GameWrongGuess broadcasts a miss. Close marks near-misses.
type GameWrongGuess struct {
	Username string `json:"username"`
	Guess    string `json:"guess"`
	Close    bool   `json:"close"`
}

// GameTurnEnd reveals the word and refreshed scores.
type GameTurnEnd struct {
	Word    string        `json:"word"`
	Players []PlayerScore `json:"players"`
}

// GameOver carries the final scoreboard.
type GameOver struct {
	Players []PlayerScore `json:"players"`
}

// GameSync is the full game state pushed to late joiners and
// rejoining members. Word is only populated for the drawer.
type GameSync struct {
	Status         string        `json:"status"`
	Players        []PlayerScore `json:"players"`
	Round          int           `json:"round"`
	MaxRounds      int           `json:"maxRounds"`
	TurnTime       int           `json:"turnTime"`
	Drawer         string        `json:"drawer"`
	DrawerSocketID string        `json:"drawerSocketId"`
	Shown          string        `json:"shown,omitempty"`
	WordLen        int           `json:"wordLen,omitempty"`
	Word           string        `json:"word,omitempty"`
}
