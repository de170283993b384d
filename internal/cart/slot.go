package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an untouched cart survives in Redis.
const DefaultTTL = 90 * 24 * time.Hour

// Slot is the named durable storage a single cart is persisted to.
type Slot interface {
	// Load returns the stored bytes, or nil when nothing was stored.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// RedisSlots hands out Redis backed slots keyed by session.
type RedisSlots struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlots returns slots stored in client that expire after ttl of inactivity.
func NewRedisSlots(client *redis.Client, ttl time.Duration) *RedisSlots {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSlots{client: client, ttl: ttl}
}

// Slot returns the slot for a session.
func (r *RedisSlots) Slot(session string) Slot {
	return &redisSlot{client: r.client, key: slotKey(session), ttl: r.ttl}
}

type redisSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (s *redisSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if err := s.client.Expire(ctx, s.key, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis expire failed: %w", err)
	}
	return data, nil
}

func (s *redisSlot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func slotKey(session string) string {
	return fmt.Sprintf("cart-storage:%s", session)
}

// MemorySlot keeps the cart in process memory.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte

	LoadErr error
	SaveErr error
}

func (m *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

// Bytes returns what was last saved.
func (m *MemorySlot) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
