package cart

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server when REDIS_ADDR is set.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewRedisStore(client, time.Minute)
}

func TestRedisStoreConcurrentAdds(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	owner := uuid.NewString()
	t.Cleanup(func() { _ = store.Clear(ctx, owner) })

	item := Item{ProductID: uuid.New(), Title: "Mug", PriceCents: 100, Quantity: 1}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(ctx, owner, item)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := store.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	ttl, err := store.client.TTL(ctx, Key(owner)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisStoreRemoveAndClear(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	owner := uuid.NewString()

	a := Item{ProductID: uuid.New(), Title: "A", PriceCents: 1, Quantity: 1}
	b := Item{ProductID: uuid.New(), Title: "B", PriceCents: 2, Quantity: 1}
	_, err := store.Add(ctx, owner, a)
	require.NoError(t, err)
	_, err = store.Add(ctx, owner, b)
	require.NoError(t, err)

	items, err := store.Remove(ctx, owner, a.ProductID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, b.ProductID, items[0].ProductID)

	require.NoError(t, store.Clear(ctx, owner))
	items, err = store.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}
