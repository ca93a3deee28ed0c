package room

// Canvas history is a single shared stack per room. Committing while
// the cursor sits mid-stack discards the redo branch, the same way a
// text editor forgets undone edits once you type again.

// CommitSnapshot records a new canonical canvas state.
func (room *Room) CommitSnapshot(snapshot string) {
	room.mu.Lock()
	defer room.mu.Unlock()
	room.commitLocked(snapshot)
}

func (room *Room) commitLocked(snapshot string) {
	if room.cursor < len(room.history)-1 {
		room.history = room.history[:room.cursor+1]
	}
	room.history = append(room.history, snapshot)
	if limit := room.config.HistoryLimit; limit > 0 && len(room.history) > limit {
		room.history = room.history[len(room.history)-limit:]
	}
	room.cursor = len(room.history) - 1
}

// Undo steps the cursor back and returns the snapshot to restore.
// Returns false at the bottom of the stack.
func (room *Room) Undo() (string, bool) {
	room.mu.Lock()
	defer room.mu.Unlock()

	room.healLocked()
	if room.cursor == 0 {
		return "", false
	}
	room.cursor--
	return room.history[room.cursor], true
}

// Redo steps the cursor forward and returns the snapshot to restore.
// Returns false at the top of the stack.
func (room *Room) Redo() (string, bool) {
	room.mu.Lock()
	defer room.mu.Unlock()

	room.healLocked()
	if room.cursor >= len(room.history)-1 {
		return "", false
	}
	room.cursor++
	return room.history[room.cursor], true
}

// ClearCanvas commits a blank snapshot so the wipe itself is undoable.
func (room *Room) ClearCanvas() {
	room.mu.Lock()
	defer room.mu.Unlock()
	room.commitLocked("")
}

// CurrentSnapshot returns the canonical canvas state.
func (room *Room) CurrentSnapshot() string {
	room.mu.Lock()
	defer room.mu.Unlock()

	room.healLocked()
	return room.history[room.cursor]
}

// HistoryDepth returns the stack length and cursor position.
func (room *Room) HistoryDepth() (int, int) {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.history), room.cursor
}

// healLocked restores the history invariant if it was ever violated:
// a corrupt stack resets to a single blank snapshot instead of
// panicking mid-broadcast. Caller holds mu.
func (room *Room) healLocked() {
	if len(room.history) == 0 || room.cursor < 0 || room.cursor >= len(room.history) {
		room.history = []string{""}
		room.cursor = 0
	}
}
