package game

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inklink/boardserver/internal/protocol"
)

var (
	ErrGameRunning   = errors.New("game already running")
	ErrTooFewPlayers = errors.New("need at least two players")
)

// Emitter delivers game events to room members.
type Emitter interface {
	Broadcast(event string, payload any)
	SendTo(connID string, event string, payload any)
}

// Game is one match bound to a room. All state transitions happen
// under mu, driven either by member actions or the 1 Hz clock.
type Game struct {
	cfg     Config
	emitter Emitter
	log     zerolog.Logger

	mu        sync.Mutex
	phase     Phase
	round     int
	players   []*Player // join order, drawer rotation order
	byID      map[string]*Player
	drawerIdx int

	word       string
	shown      string
	candidates []string
	remaining  int
	hintAt     []int
	guessed    map[string]bool
	turnStart  time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an idle match engine for a room.
func New(cfg Config, emitter Emitter, log zerolog.Logger) *Game {
	return &Game{
		cfg:     cfg,
		emitter: emitter,
		log:     log,
		phase:   PhaseLobby,
		byID:    make(map[string]*Player),
		guessed: make(map[string]bool),
		stopCh:  make(chan struct{}),
	}
}

// Start begins a match with the given roster and launches the clock.
// Zero rounds/turnTime fall back to the configured defaults.
func (g *Game) Start(roster []RosterEntry, rounds, turnTime int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.startLocked(roster, rounds, turnTime); err != nil {
		return err
	}
	g.wg.Add(1)
	go g.run()
	return nil
}

func (g *Game) startLocked(roster []RosterEntry, rounds, turnTime int) error {
	if g.phase != PhaseLobby {
		return ErrGameRunning
	}
	if len(roster) < 2 {
		return ErrTooFewPlayers
	}
	if rounds > 0 {
		g.cfg.Rounds = rounds
	}
	if turnTime > 0 {
		g.cfg.TurnTime = turnTime
	}

	g.players = g.players[:0]
	g.byID = make(map[string]*Player, len(roster))
	for _, e := range roster {
		p := &Player{ID: e.ID, Username: e.Username, Connected: true}
		g.players = append(g.players, p)
		g.byID[p.ID] = p
	}
	g.round = 1
	g.drawerIdx = -1

	g.emitter.Broadcast(protocol.EventGameStarted, protocol.GameStarted{
		Players:  scoreboard(g.players),
		Rounds:   g.cfg.Rounds,
		TurnTime: g.cfg.TurnTime,
	})
	g.log.Info().Int("rounds", g.cfg.Rounds).Int("turn_time", g.cfg.TurnTime).
		Int("players", len(g.players)).Msg("game started")

	g.nextTurnLocked()
	return nil
}

// run drives timed transitions once per second until the match ends.
func (g *Game) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.mu.Lock()
			g.tickLocked()
			g.mu.Unlock()
		}
	}
}

func (g *Game) tickLocked() {
	switch g.phase {
	case PhaseChoosing:
		g.remaining--
		if g.remaining <= 0 && len(g.candidates) > 0 {
			// Drawer stalled out, pick for them.
			g.beginDrawingLocked(g.candidates[0])
		}
	case PhaseDrawing:
		g.remaining--
		g.emitter.Broadcast(protocol.EventGameTick, protocol.GameTick{T: g.remaining})
		for _, at := range g.hintAt {
			if g.remaining == at {
				g.shown = revealOne(g.word, g.shown)
				g.emitter.Broadcast(protocol.EventGameHint, protocol.GameHint{Shown: g.shown})
			}
		}
		if g.remaining <= 0 {
			g.endTurnLocked()
		}
	case PhaseTurnEnd:
		g.remaining--
		if g.remaining <= 0 {
			g.nextTurnLocked()
		}
	}
}

// nextTurnLocked rotates the drawer to the next connected member,
// bumping the round exactly once when the rotation wraps, and opens
// the choosing phase or ends the match.
func (g *Game) nextTurnLocked() {
	n := len(g.players)
	for step := 1; step <= n; step++ {
		idx := g.drawerIdx + step
		wrapped := idx >= n
		if wrapped {
			idx -= n
		}
		if !g.players[idx].Connected {
			continue
		}
		if wrapped {
			// The rotation passed the end of the roster, so the next
			// drawer opens a new round.
			if g.round >= g.cfg.Rounds {
				g.finishLocked()
				return
			}
			g.round++
		}
		g.drawerIdx = idx
		g.beginChoosingLocked()
		return
	}
	g.finishLocked()
}

func (g *Game) beginChoosingLocked() {
	drawer := g.players[g.drawerIdx]
	g.phase = PhaseChoosing
	g.candidates = pickCandidates(g.cfg.WordChoices)
	g.remaining = g.cfg.PickTimeout
	g.word = ""
	g.shown = ""
	g.guessed = make(map[string]bool)

	announce := protocol.GameChoosing{
		Drawer:         drawer.Username,
		DrawerSocketID: drawer.ID,
		Round:          g.round,
		MaxRounds:      g.cfg.Rounds,
	}
	g.emitter.Broadcast(protocol.EventGameChoosing, announce)
	announce.Words = g.candidates
	g.emitter.SendTo(drawer.ID, protocol.EventGameChoosing, announce)

	g.log.Debug().Str("drawer", drawer.Username).Int("round", g.round).Msg("choosing word")
}

func (g *Game) beginDrawingLocked(word string) {
	drawer := g.players[g.drawerIdx]
	g.phase = PhaseDrawing
	g.word = normalizeGuess(word)
	g.shown = maskWord(g.word)
	g.candidates = nil
	g.remaining = g.cfg.TurnTime
	g.hintAt = []int{g.cfg.TurnTime / 2, g.cfg.TurnTime / 4}
	g.guessed = make(map[string]bool)
	g.turnStart = time.Now()

	g.emitter.SendTo(drawer.ID, protocol.EventGameYouDraw, protocol.GameYouDraw{Word: g.word})
	g.emitter.Broadcast(protocol.EventGameRoundStart, protocol.GameRoundStart{
		Shown:          g.shown,
		WordLen:        len([]rune(g.word)),
		Drawer:         drawer.Username,
		DrawerSocketID: drawer.ID,
	})
}

// PickWord is the drawer choosing from their candidates. Picks from
// anyone else, outside the choosing phase, or off the candidate list
// are dropped.
func (g *Game) PickWord(connID, word string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseChoosing || g.drawerIdx < 0 || g.players[g.drawerIdx].ID != connID {
		return
	}
	for _, c := range g.candidates {
		if c == normalizeGuess(word) {
			g.beginDrawingLocked(c)
			return
		}
	}
}

// Guess processes a member's guess attempt during the drawing phase.
// The drawer and already-correct members are ignored.
func (g *Game) Guess(connID, guess string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDrawing {
		return
	}
	p, ok := g.byID[connID]
	if !ok || p.ID == g.players[g.drawerIdx].ID || g.guessed[connID] {
		return
	}

	attempt := normalizeGuess(guess)
	if attempt == "" {
		return
	}

	if attempt == g.word {
		pts := guessPoints(time.Since(g.turnStart))
		p.Score += pts
		g.guessed[connID] = true

		g.emitter.Broadcast(protocol.EventGameCorrectGuess, protocol.GameCorrectGuess{
			Username: p.Username,
			Pts:      pts,
			Players:  scoreboard(g.players),
		})
		g.emitter.SendTo(connID, protocol.EventGameYouGuessed, protocol.GameYouGuessed{
			Word: g.word,
			Pts:  pts,
		})

		if g.allGuessedLocked() {
			g.endTurnLocked()
		}
		return
	}

	g.emitter.Broadcast(protocol.EventGameWrongGuess, protocol.GameWrongGuess{
		Username: p.Username,
		Guess:    guess,
		Close:    levenshtein(attempt, g.word) <= g.cfg.CloseDistance,
	})
}

// allGuessedLocked reports whether every connected non-drawer solved it.
func (g *Game) allGuessedLocked() bool {
	drawerID := g.players[g.drawerIdx].ID
	for _, p := range g.players {
		if !p.Connected || p.ID == drawerID {
			continue
		}
		if !g.guessed[p.ID] {
			return false
		}
	}
	return true
}

func (g *Game) endTurnLocked() {
	drawer := g.players[g.drawerIdx]
	drawer.Score += drawerBonusPerSolver * len(g.guessed)

	g.phase = PhaseTurnEnd
	g.remaining = g.cfg.TurnEndPause
	g.emitter.Broadcast(protocol.EventGameTurnEnd, protocol.GameTurnEnd{
		Word:    g.word,
		Players: scoreboard(g.players),
	})
}

func (g *Game) finishLocked() {
	g.phase = PhaseOver
	g.emitter.Broadcast(protocol.EventGameOver, protocol.GameOver{
		Players: scoreboard(g.players),
	})
	g.log.Info().Msg("game over")
	g.stopClockLocked()
}

// Stop aborts the match. Authorization is the caller's concern.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseLobby || g.phase == PhaseOver {
		return
	}
	g.phase = PhaseOver
	g.emitter.Broadcast(protocol.EventGameStopped, nil)
	g.log.Info().Msg("game stopped")
	g.stopClockLocked()
}

func (g *Game) stopClockLocked() {
	g.stopOnce.Do(func() { close(g.stopCh) })
}

// Wait blocks until the clock goroutine has exited.
func (g *Game) Wait() {
	g.wg.Wait()
}

// HandleLeave marks a member disconnected. A departing drawer ends the
// turn immediately; dropping under two connected members ends the match.
func (g *Game) HandleLeave(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.byID[connID]
	if !ok || g.phase == PhaseLobby || g.phase == PhaseOver {
		return
	}
	p.Connected = false

	connected := 0
	for _, pl := range g.players {
		if pl.Connected {
			connected++
		}
	}
	if connected < 2 {
		g.phase = PhaseOver
		g.emitter.Broadcast(protocol.EventGameStopped, nil)
		g.log.Info().Msg("game stopped: not enough players")
		g.stopClockLocked()
		return
	}

	if g.drawerIdx >= 0 && g.players[g.drawerIdx].ID == connID &&
		(g.phase == PhaseChoosing || g.phase == PhaseDrawing) {
		g.endTurnLocked()
	}
}

// Rejoin rebinds a disconnected player's entry to a fresh connection
// and replays the full state to it. Returns false if no disconnected
// player carries that name.
func (g *Game) Rejoin(username, connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseLobby || g.phase == PhaseOver {
		return false
	}
	for _, p := range g.players {
		if p.Username == username && !p.Connected {
			delete(g.byID, p.ID)
			if g.guessed[p.ID] {
				delete(g.guessed, p.ID)
				g.guessed[connID] = true
			}
			p.ID = connID
			p.Connected = true
			g.byID[connID] = p
			g.emitter.SendTo(connID, protocol.EventGameSync, g.syncLocked(connID))
			return true
		}
	}
	return false
}

// SyncFor replays the current match state to one connection.
func (g *Game) SyncFor(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseLobby {
		return
	}
	g.emitter.SendTo(connID, protocol.EventGameSync, g.syncLocked(connID))
}

func (g *Game) syncLocked(connID string) protocol.GameSync {
	sync := protocol.GameSync{
		Status:    string(g.phase),
		Players:   scoreboard(g.players),
		Round:     g.round,
		MaxRounds: g.cfg.Rounds,
		TurnTime:  g.cfg.TurnTime,
	}
	if g.drawerIdx >= 0 && g.drawerIdx < len(g.players) {
		drawer := g.players[g.drawerIdx]
		sync.Drawer = drawer.Username
		sync.DrawerSocketID = drawer.ID
		if drawer.ID == connID {
			sync.Word = g.word
		}
	}
	if g.phase == PhaseDrawing {
		sync.Shown = g.shown
		sync.WordLen = len([]rune(g.word))
	}
	return sync
}

// Active reports whether a match is in progress.
func (g *Game) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase != PhaseLobby && g.phase != PhaseOver
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// AllowDraw reports whether the member may paint right now. While a
// turn is live only the drawer's strokes are accepted; otherwise the
// canvas is open to everyone.
func (g *Game) AllowDraw(connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseChoosing && g.phase != PhaseDrawing {
		return true
	}
	return g.drawerIdx >= 0 && g.players[g.drawerIdx].ID == connID
}
