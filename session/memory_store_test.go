package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLoadEmptyReturnsErrNoSnapshot(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestMemoryStoreSaveThenLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	want := Snapshot{SessionID: "sess-1", LastEventID: "evt-9"}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Snapshot{SessionID: "sess-1"}))
	require.NoError(t, s.Clear(ctx))

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestMemoryStoreImplementsStore(t *testing.T) {
	var _ Store = NewMemoryStore()
}
