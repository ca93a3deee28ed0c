// Package game implements the server-authoritative guessing match that
// runs inside a room: rounds of one drawer and many guessers.
package game

import (
	"time"

	"github.com/inklink/boardserver/internal/protocol"
)

// Phase of the match state machine.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseChoosing Phase = "choosing"
	PhaseDrawing  Phase = "drawing"
	PhaseTurnEnd  Phase = "turnEnd"
	PhaseOver     Phase = "over"
)

// Config holds match settings.
type Config struct {
	Rounds        int
	TurnTime      int // seconds of drawing per turn
	PickTimeout   int // seconds the drawer has to choose a word
	TurnEndPause  int // seconds between turns
	CloseDistance int // edit distance treated as a near-miss
	WordChoices   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Rounds:        3,
		TurnTime:      80,
		PickTimeout:   15,
		TurnEndPause:  3,
		CloseDistance: 2,
		WordChoices:   3,
	}
}

// Player is a match participant. Entries survive disconnects so a
// member who rejoins under the same name keeps their score.
type Player struct {
	ID        string // connection id
	Username  string
	Score     int
	Connected bool
}

// RosterEntry seeds a player from the room roster at match start.
type RosterEntry struct {
	ID       string
	Username string
}

// scoreboard renders players in join order for the wire.
func scoreboard(players []*Player) []protocol.PlayerScore {
	out := make([]protocol.PlayerScore, 0, len(players))
	for _, p := range players {
		out = append(out, protocol.PlayerScore{
			SocketID: p.ID,
			Username: p.Username,
			Score:    p.Score,
		})
	}
	return out
}

// guessPoints scores a correct guess: faster pays more, floor of 50.
func guessPoints(elapsed time.Duration) int {
	pts := 100 - int(elapsed.Seconds())
	if pts < 50 {
		pts = 50
	}
	return pts
}

// drawerBonusPerSolver rewards the drawer for each member who solved
// the word before time ran out.
const drawerBonusPerSolver = 25
