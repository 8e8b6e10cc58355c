package kvstore

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisStore(client)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	key := "cosmos-test:wishlist"
	require.NoError(t, store.Set(ctx, key, []byte(`{}`)))
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}
