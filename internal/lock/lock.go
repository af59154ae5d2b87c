package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLocked   = errors.New("lock is held by another operation")
	ErrLockLost = errors.New("lock expired before release")
)

// Locker grants short-lived exclusive access to a key. Acquire never blocks.
// release reports ErrLockLost when the ttl ran out before it was called.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func() error, err error)
}

type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func() error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() error {
		return l.release(context.Background(), key, token)
	}, nil
}

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if deleted == 0 {
		return ErrLockLost
	}
	return nil
}

// LocalLocker is the single-process fallback used when no redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expires, ok := l.held[key]; ok && time.Now().Before(expires) {
		return nil, ErrLocked
	}
	expires := time.Now().Add(ttl)
	l.held[key] = expires

	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if !l.held[key].Equal(expires) || time.Now().After(expires) {
			return ErrLockLost
		}
		delete(l.held, key)
		return nil
	}, nil
}
