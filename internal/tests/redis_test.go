package tests

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrijus/internal/domain"
	"nutrijus/internal/storage"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	_, client := testRedis(t)
	sessions := storage.NewSessionStore(client, time.Hour)

	token, err := sessions.Create(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	require.NoError(t, sessions.Delete(ctx, token))
	_, err = sessions.Validate(ctx, token)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = sessions.Validate(ctx, "never-issued")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionStore_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := testRedis(t)
	sessions := storage.NewSessionStore(client, time.Hour)

	token, err := sessions.Create(ctx, "u1")
	require.NoError(t, err)

	// Validation refreshes the TTL, so an active session outlives it.
	mr.FastForward(45 * time.Minute)
	_, err = sessions.Validate(ctx, token)
	require.NoError(t, err)

	mr.FastForward(45 * time.Minute)
	_, err = sessions.Validate(ctx, token)
	require.NoError(t, err)

	// An idle session expires.
	mr.FastForward(2 * time.Hour)
	_, err = sessions.Validate(ctx, token)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCartStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := testRedis(t)
	carts := storage.NewCartStore(client, time.Hour)

	cart, err := carts.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.Empty(t, cart.Items, "a missing cart reads as empty")

	cart.Items = []domain.CartItem{{ProductID: "p1", Quantity: 3}}
	require.NoError(t, carts.Save(ctx, cart))

	loaded, err := carts.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, cart.Items, loaded.Items)

	require.NoError(t, carts.Delete(ctx, "cart-1"))
	loaded, err = carts.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestQRCache(t *testing.T) {
	ctx := context.Background()
	_, client := testRedis(t)
	cache := storage.NewQRCache(client, time.Hour)

	png, err := cache.Get(ctx, "123")
	require.NoError(t, err)
	assert.Nil(t, png, "a cache miss is not an error")

	require.NoError(t, cache.Set(ctx, "123", []byte("png-bytes")))
	png, err = cache.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), png)
}
