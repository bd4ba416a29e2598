package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotAssignsLowestFreeSlot(t *testing.T) {
	r := NewRegistry(nil, "sess-1", 4)
	ctx := context.Background()

	slotA, err := r.Slot(ctx, "operator-a")
	require.NoError(t, err)
	assert.Equal(t, 0, slotA)

	slotB, err := r.Slot(ctx, "operator-b")
	require.NoError(t, err)
	assert.Equal(t, 1, slotB)
}

func TestSlotIsStableAcrossReconnect(t *testing.T) {
	r := NewRegistry(nil, "sess-1", 4)
	ctx := context.Background()

	first, err := r.Slot(ctx, "operator-a")
	require.NoError(t, err)

	second, err := r.Slot(ctx, "operator-a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSlotReturnsErrSessionFullWhenExhausted(t *testing.T) {
	r := NewRegistry(nil, "sess-1", 1)
	ctx := context.Background()

	_, err := r.Slot(ctx, "operator-a")
	require.NoError(t, err)

	_, err = r.Slot(ctx, "operator-b")
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestReleaseFreesSlotForReuseButNeverSlotZero(t *testing.T) {
	r := NewRegistry(nil, "sess-1", 2)
	ctx := context.Background()

	_, err := r.Slot(ctx, "host")
	require.NoError(t, err)
	guestSlot, err := r.Slot(ctx, "guest")
	require.NoError(t, err)
	require.Equal(t, 1, guestSlot)

	require.NoError(t, r.Release(ctx, "guest"))
	_, ok := r.IdentityOf(1)
	assert.False(t, ok)

	require.NoError(t, r.Release(ctx, "host"))
	identity, ok := r.IdentityOf(0)
	assert.True(t, ok)
	assert.Equal(t, "host", identity)
}

func TestIdentityOfReportsAssignedSlot(t *testing.T) {
	r := NewRegistry(nil, "sess-1", 2)
	ctx := context.Background()

	_, err := r.Slot(ctx, "operator-a")
	require.NoError(t, err)

	identity, ok := r.IdentityOf(0)
	require.True(t, ok)
	assert.Equal(t, "operator-a", identity)

	_, ok = r.IdentityOf(1)
	assert.False(t, ok)
}
