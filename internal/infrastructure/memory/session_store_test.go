package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecall/tablecall/internal/dependencies/mocks"
	"github.com/tablecall/tablecall/internal/domain/session"
)

func TestSessionStoreUnknownChatIsIdle(t *testing.T) {
	store := NewSessionStore(time.Hour, mocks.NewMockClock(time.Now()))
	s, err := store.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, s.State)
	assert.Equal(t, int64(42), s.ChatID)
}

func TestSessionStoreRoundTripIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Hour, mocks.NewMockClock(time.Now()))

	s := session.New(1)
	s.Begin(true)
	require.NoError(t, s.ChooseFormat(3))
	require.NoError(t, store.Save(ctx, s))

	// Mutating the caller's copy must not leak into the store.
	s.Reset()

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StateChooseLimit, loaded.State)
	require.NotNil(t, loaded.Scratchpad.FormatID)
	assert.Equal(t, int64(3), *loaded.Scratchpad.FormatID)
}

func TestSessionStoreExpiresIdleEntries(t *testing.T) {
	ctx := context.Background()
	clk := mocks.NewMockClock(time.Now())
	store := NewSessionStore(time.Minute, clk)

	s := session.New(9)
	s.Begin(false)
	require.NoError(t, store.Save(ctx, s))

	clk.Advance(30 * time.Second)
	loaded, err := store.Load(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, session.StateAskNick, loaded.State)

	clk.Advance(time.Minute)
	loaded, err = store.Load(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, loaded.State)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Hour, mocks.NewMockClock(time.Now()))
	s := session.New(5)
	s.Begin(true)
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Clear(ctx, 5))

	loaded, err := store.Load(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, loaded.State)
}
