package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when an item stays locked for longer than the wait budget.
var ErrLockTimeout = errors.New("item lock wait timeout")

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient builds a client from the redis config section.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisItemLocker is a cross-process item lock built on SET NX PX.
type RedisItemLocker struct {
	client     *redis.Client
	ttl        time.Duration
	wait       time.Duration
	retryEvery time.Duration
	prefix     string
}

func NewRedisItemLocker(client *redis.Client, cfg config.LocksConfig) *RedisItemLocker {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	wait := cfg.Wait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisItemLocker{
		client:     client,
		ttl:        ttl,
		wait:       wait,
		retryEvery: 25 * time.Millisecond,
		prefix:     "shareit:lock:item",
	}
}

func (l *RedisItemLocker) key(itemID int64) string {
	return fmt.Sprintf("%s:%d", l.prefix, itemID)
}

func (l *RedisItemLocker) Lock(ctx context.Context, itemID int64) (func(), error) {
	if l.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	key := l.key(itemID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire item lock: %w", err)
		}
		if acquired {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("item %d: %w", itemID, ErrLockTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock item %d: %w", itemID, ctx.Err())
		case <-time.After(l.retryEvery):
		}
	}
}

// Ping checks the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes a possibly nil client.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
