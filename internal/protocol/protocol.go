// Package protocol provides helpers for encoding/decoding realtime events.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Event names carried on the wire. Every frame is an Envelope whose
// Event field is one of these constants.
const (
	// Room lifecycle.
	EventRoomJoin          = "room:join"
	EventRoomJoined        = "room:joined"
	EventRoomUserJoined    = "room:user_joined"
	EventRoomUserLeft      = "room:user_left"
	EventRoomLeave         = "room:leave"
	EventRoomError         = "room:error"
	EventRoomSetBackground = "room:set_background"
	EventSettingsUpdated   = "settings:updated"
	EventKick              = "kick"
	EventKicked            = "kicked"

	// Drawing and canvas history.
	EventDrawStart     = "draw:start"
	EventDrawMove      = "draw:move"
	EventDrawEnd       = "draw:end"
	EventDrawText      = "draw:text"
	EventDrawClear     = "draw:clear"
	EventDrawUndo      = "draw:undo"
	EventDrawRedo      = "draw:redo"
	EventDrawSync      = "draw:sync"
	EventDrawSyncState = "draw:sync_state"
	EventCanvasSave    = "canvas:save"

	// Chat, reactions, cursors.
	EventChatSend     = "chat:send"
	EventChatMessage  = "chat:message"
	EventReactionSend = "reaction:send"
	EventReactionShow = "reaction:show"
	EventCursorMove   = "cursor:move"

	// Mesh signaling.
	EventWebRTCOffer       = "webrtc:offer"
	EventWebRTCAnswer      = "webrtc:answer"
	EventWebRTCICE         = "webrtc:ice-candidate"
	EventWebRTCToggleMedia = "webrtc:toggle-media"

	// Game engine, client to server.
	EventGameStart    = "game:start"
	EventGamePickWord = "game:pickWord"
	EventGameGuess    = "game:guess"
	EventGameStop     = "game:stop"
	EventGameRejoin   = "game:rejoin"

	// Game engine, server to client.
	EventGameStarted      = "game:started"
	EventGameChoosing     = "game:choosing"
	EventGameYouDraw      = "game:youDraw"
	EventGameRoundStart   = "game:roundStart"
	EventGameTick         = "game:tick"
	EventGameHint         = "game:hint"
	EventGameCorrectGuess = "game:correctGuess"
	EventGameYouGuessed   = "game:youGuessed"
	EventGameWrongGuess   = "game:wrongGuess"
	EventGameTurnEnd      = "game:turnEnd"
	EventGameOver         = "game:over"
	EventGameStopped      = "game:stopped"
	EventGameSync         = "game:sync"
)

// Envelope is the wire frame: a named event plus its JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds a wire frame for the given event and payload.
func Encode(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses a wire frame. The payload stays raw until Bind is called.
func Decode(data []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("envelope missing event name")
	}
	return env, nil
}

// Bind unmarshals the envelope payload into v.
func (e *Envelope) Bind(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: bad payload: %w", e.Event, err)
	}
	return nil
}
