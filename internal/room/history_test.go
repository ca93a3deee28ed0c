package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(t *testing.T, cfg Config) *Room {
	t.Helper()
	r := NewRegistry(cfg)
	t.Cleanup(r.Close)
	rm, err := r.Create("")
	require.NoError(t, err)
	return rm
}

func TestHistoryStartsBlank(t *testing.T) {
	rm := testRoom(t, DefaultConfig())
	assert.Equal(t, "", rm.CurrentSnapshot())

	_, ok := rm.Undo()
	assert.False(t, ok, "nothing to undo on a fresh room")
	_, ok = rm.Redo()
	assert.False(t, ok, "nothing to redo on a fresh room")
}

func TestUndoRedoRoundTrip(t *testing.T) {
	rm := testRoom(t, DefaultConfig())

	for i := 1; i <= 5; i++ {
		rm.CommitSnapshot(fmt.Sprintf("snap-%d", i))
	}

	// Walk all the way down, then all the way back up.
	for i := 4; i >= 1; i-- {
		snap, ok := rm.Undo()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("snap-%d", i), snap)
	}
	snap, ok := rm.Undo()
	require.True(t, ok)
	assert.Equal(t, "", snap, "bottom of the stack is the blank seed")
	_, ok = rm.Undo()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		snap, ok := rm.Redo()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("snap-%d", i), snap)
	}
	_, ok = rm.Redo()
	assert.False(t, ok)
	assert.Equal(t, "snap-5", rm.CurrentSnapshot())
}

func TestCommitTruncatesRedoBranch(t *testing.T) {
	rm := testRoom(t, DefaultConfig())

	rm.CommitSnapshot("a")
	rm.CommitSnapshot("b")
	rm.CommitSnapshot("c")

	_, ok := rm.Undo()
	require.True(t, ok) // back to b
	_, ok = rm.Undo()
	require.True(t, ok) // back to a

	rm.CommitSnapshot("d")
	assert.Equal(t, "d", rm.CurrentSnapshot())

	// b and c are gone.
	_, ok = rm.Redo()
	assert.False(t, ok)
	snap, ok := rm.Undo()
	require.True(t, ok)
	assert.Equal(t, "a", snap)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLimit = 40
	rm := testRoom(t, cfg)

	for i := 1; i <= 60; i++ {
		rm.CommitSnapshot(fmt.Sprintf("snap-%d", i))
	}

	depth, cursor := rm.HistoryDepth()
	assert.Equal(t, 40, depth)
	assert.Equal(t, 39, cursor)
	assert.Equal(t, "snap-60", rm.CurrentSnapshot())

	// Undo bottoms out at the oldest retained snapshot, not the seed.
	var last string
	for {
		snap, ok := rm.Undo()
		if !ok {
			break
		}
		last = snap
	}
	assert.Equal(t, "snap-21", last)
}

func TestClearCanvasIsUndoable(t *testing.T) {
	rm := testRoom(t, DefaultConfig())

	rm.CommitSnapshot("drawing")
	rm.ClearCanvas()
	assert.Equal(t, "", rm.CurrentSnapshot())

	snap, ok := rm.Undo()
	require.True(t, ok)
	assert.Equal(t, "drawing", snap)
}

func TestCorruptHistorySelfHeals(t *testing.T) {
	rm := testRoom(t, DefaultConfig())
	rm.CommitSnapshot("x")

	rm.mu.Lock()
	rm.cursor = 99
	rm.mu.Unlock()

	assert.Equal(t, "", rm.CurrentSnapshot())
	depth, cursor := rm.HistoryDepth()
	assert.Equal(t, 1, depth)
	assert.Equal(t, 0, cursor)
}
