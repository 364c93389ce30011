package state

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepository(0), zerolog.Nop())

	var during Slice
	got, err := Run(ctx, store, "stats/charges", func(ctx context.Context) (int, error) {
		var err error
		during, err = store.Get(ctx, "stats/charges")
		require.NoError(t, err)
		assert.Equal(t, during.RequestID, RequestID(ctx))
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	assert.Equal(t, Pending, during.State)
	assert.True(t, during.InFlight)
	assert.NotEmpty(t, during.RequestID)

	after, err := store.Get(ctx, "stats/charges")
	require.NoError(t, err)
	assert.Equal(t, Success, after.State)
	assert.Equal(t, 7, after.Value)
	assert.False(t, after.InFlight)
	assert.Equal(t, during.RequestID, after.RequestID)
}

func TestRunFailure(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, zerolog.Nop())
	boom := errors.New("boom")

	_, err := Run(ctx, store, "k", func(context.Context) (string, error) {
		return "partial", boom
	})
	require.ErrorIs(t, err, boom)

	slice, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Failure, slice.State)
	assert.Equal(t, "boom", slice.Error)
	assert.Nil(t, slice.Value)
	assert.False(t, slice.InFlight)
}

func TestRunRecoversPanic(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, zerolog.Nop())

	got, err := Run(ctx, store, "k", func(context.Context) (int, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Zero(t, got)

	slice, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Failure, slice.State)
	assert.False(t, slice.InFlight)
}

func TestRequestIDOutsideRun(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

func TestRunUsesFreshRequestIDs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, zerolog.Nop())

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		_, err := Run(ctx, store, "k", func(ctx context.Context) (bool, error) { return true, nil })
		require.NoError(t, err)
		slice, err := store.Get(ctx, "k")
		require.NoError(t, err)
		ids[slice.RequestID] = true
	}
	assert.Len(t, ids, 3)
}
