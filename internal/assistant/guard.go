package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventhorizon/internal/status"
	"eventhorizon/utils"

	"github.com/redis/go-redis/v9"
)

// Guard admits one outstanding assistant request at a time.
type Guard interface {
	// Acquire returns status.ErrAssistantBusy when the slot is taken.
	Acquire(ctx context.Context) (release func(), err error)
}

type LocalGuard struct {
	mu sync.Mutex
}

func (g *LocalGuard) Acquire(context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, status.ErrAssistantBusy
	}
	return g.mu.Unlock, nil
}

const (
	DefaultLockKey = "assistant:inflight"
	DefaultLockTTL = 30 * time.Second
)

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// extendScript pushes the TTL forward only while the lock holds our token.
const extendScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

// RedisGuard holds the slot as a SET NX key with a TTL, so a crashed holder
// frees it once the TTL lapses. The holder refreshes the TTL every third of
// it until released, so calls longer than the TTL keep the slot.
type RedisGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  func() (string, error)
}

func NewRedisGuard(client *redis.Client, key string, ttl time.Duration) *RedisGuard {
	if key == "" {
		key = DefaultLockKey
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisGuard{
		client: client,
		key:    key,
		ttl:    ttl,
		token:  func() (string, error) { return utils.GenerateCode(16) },
	}
}

func (g *RedisGuard) Acquire(ctx context.Context) (func(), error) {
	token, err := g.token()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire assistant lock: %w", err)
	}
	if !ok {
		return nil, status.ErrAssistantBusy
	}

	stop := make(chan struct{})
	go g.keepAlive(token, stop)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.client.Eval(ctx, releaseScript, []string{g.key}, token).Err(); err != nil {
				slog.Error("failed to release assistant lock", "key", g.key, "error", err)
			}
		})
	}
	return release, nil
}

// keepAlive extends the lock until stop is closed or the lock is lost.
func (g *RedisGuard) keepAlive(token string, stop <-chan struct{}) {
	ticker := time.NewTicker(g.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			held, err := g.extend(token)
			if err != nil {
				slog.Warn("failed to extend assistant lock", "key", g.key, "error", err)
				continue
			}
			if !held {
				slog.Warn("assistant lock lost before release", "key", g.key)
				return
			}
		}
	}
}

func (g *RedisGuard) extend(token string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := g.client.Eval(ctx, extendScript, []string{g.key}, token, g.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
