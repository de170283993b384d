package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisSlots, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSlots(client, time.Hour), mr
}

func TestRedisSlot_EmptyLoad(t *testing.T) {
	slots, _ := setupTestRedis(t)

	data, err := slots.Slot("sess-1").Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisSlot_StoreWritesThrough(t *testing.T) {
	slots, mr := setupTestRedis(t)
	ctx := context.Background()

	s := New(slots.Slot("sess-1"), logging.Discard())
	s.AddToCart(ctx, apple)

	assert.True(t, mr.Exists("cart-storage:sess-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart-storage:sess-1"))

	restored := New(slots.Slot("sess-1"), logging.Discard())
	require.NoError(t, restored.Rehydrate(ctx))
	require.Len(t, restored.Items(), 1)
	assert.True(t, restored.Items()[0].Quantity.Equal(decimal.NewFromInt(1)))

	other := New(slots.Slot("sess-2"), logging.Discard())
	require.NoError(t, other.Rehydrate(ctx))
	assert.Empty(t, other.Items())
}

func TestRedisSlot_LoadSlidesTTL(t *testing.T) {
	slots, mr := setupTestRedis(t)
	ctx := context.Background()
	slot := slots.Slot("sess-1")

	require.NoError(t, slot.Save(ctx, []byte(`{"items":[]}`)))
	mr.FastForward(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, mr.TTL("cart-storage:sess-1"))

	_, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("cart-storage:sess-1"))
}

func TestRedisSlot_ReadFailure(t *testing.T) {
	slots, mr := setupTestRedis(t)
	mr.SetError("LOADING")

	s := New(slots.Slot("sess-1"), logging.Discard())
	assert.Error(t, s.Rehydrate(context.Background()))
}

func TestNewRedisSlots_DefaultTTL(t *testing.T) {
	slots := NewRedisSlots(nil, 0)
	assert.Equal(t, DefaultTTL, slots.ttl)
}
