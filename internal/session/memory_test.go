package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ric-center/planner/internal/models"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	token, err := NewToken()
	require.NoError(t, err)
	require.Len(t, token, 48)

	s := &Session{
		Token:     token,
		User:      models.User{ID: 1, Email: "a@b"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, m.Create(ctx, s))

	got, err := m.Get(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.User.ID)

	_, err = m.Get(ctx, "unknown")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Delete(ctx, token))
	_, err = m.Get(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Create(ctx, &Session{Token: "live", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, m.Create(ctx, &Session{Token: "dead", ExpiresAt: time.Now().Add(-time.Second)}))

	_, err := m.Get(ctx, "dead")
	require.ErrorIs(t, err, ErrNotFound)

	removed, err := m.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = m.Get(ctx, "live")
	require.NoError(t, err)
}

func TestTokensAreUnique(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
