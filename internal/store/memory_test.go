package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Load(ctx, "room-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, "room-1", "data:image/png;base64,AAAA"))
	data, err := m.Load(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", data)

	// Save overwrites.
	require.NoError(t, m.Save(ctx, "room-1", "data:image/png;base64,BBBB"))
	data, err = m.Load(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,BBBB", data)

	require.NoError(t, m.Delete(ctx, "room-1"))
	_, err = m.Load(ctx, "room-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
