package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
)

func newTestSession(t *testing.T, signedIn bool) (*Session, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	factory := func() *cart.Engine {
		return cart.NewEngine(context.Background(), store, cart.Options{Logger: zaptest.NewLogger(t)})
	}
	var initial *auth.Profile
	if signedIn {
		p := auth.DemoProfile(time.Now())
		initial = &p
	}
	s := New(initial, factory)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, store
}

func ball() product.Product {
	return product.Product{ID: 2, Title: "Kookaburra Red Cricket Ball", Price: decimal.RequireFromString("24.99")}
}

func TestSession_StartsSignedIn(t *testing.T) {
	s, _ := newTestSession(t, true)

	p, err := s.Profile()
	require.NoError(t, err)
	assert.Equal(t, "John Doe", p.Name)

	c, err := s.Cart()
	require.NoError(t, err)
	require.NoError(t, c.AddItem(ball(), 2))
	assert.Equal(t, 2, c.ItemCount())
}

func TestSession_SignedOut(t *testing.T) {
	s, _ := newTestSession(t, false)

	_, err := s.Profile()
	require.ErrorIs(t, err, ErrSignedOut)
	_, err = s.Cart()
	require.ErrorIs(t, err, ErrSignedOut)
	_, err = s.UpdateProfile(auth.ProfileUpdate{})
	require.ErrorIs(t, err, ErrSignedOut)
	require.NoError(t, s.Logout(context.Background()))
}

func TestSession_LogoutClearsCart(t *testing.T) {
	s, store := newTestSession(t, true)
	ctx := context.Background()

	c, err := s.Cart()
	require.NoError(t, err)
	require.NoError(t, c.AddItem(ball(), 3))

	require.NoError(t, s.Logout(ctx))

	_, err = s.Profile()
	require.ErrorIs(t, err, ErrSignedOut)
	data, err := store.Get(ctx, cart.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	p := s.SignIn(&auth.User{ID: "7", Name: "Jane", Email: "jane@example.com"})
	assert.Equal(t, "7", p.ID)
	c, err = s.Cart()
	require.NoError(t, err)
	assert.Zero(t, c.ItemCount())
}

func TestSession_SignInKeepsCart(t *testing.T) {
	s, _ := newTestSession(t, true)

	before, err := s.Cart()
	require.NoError(t, err)
	require.NoError(t, before.AddItem(ball(), 1))

	s.SignIn(&auth.User{ID: "1", Name: "Test User"})

	after, err := s.Cart()
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.Equal(t, 1, after.ItemCount())
}

func TestSession_UpdateProfile(t *testing.T) {
	s, _ := newTestSession(t, true)
	addr := "1 Lord's Ground, London"

	p, err := s.UpdateProfile(auth.ProfileUpdate{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, addr, p.Address)
	assert.Equal(t, "John Doe", p.Name)

	got, err := s.Profile()
	require.NoError(t, err)
	assert.Equal(t, addr, got.Address)
}
