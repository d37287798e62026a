// AngelaMos | 2026
// lock.go

package upvote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PairLocker serializes toggles on one (product, user) key. TryLock never
// waits: ok is false when someone else holds the key.
type PairLocker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

const lockKeyPrefix = "upvote:lock:"

func pairKey(productID, userEmail string) string {
	return productID + ":" + userEmail
}

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLocker struct {
	client   *redis.Client
	ttl      time.Duration
	fallback *LocalLocker
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		ttl:      ttl,
		fallback: NewLocalLocker(),
	}
}

func (l *RedisLocker) TryLock(
	ctx context.Context,
	key string,
) (func(), bool, error) {
	token := uuid.NewString()
	redisKey := lockKeyPrefix + key

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		slog.Warn("upvote lock unavailable, using local lock",
			"error", err,
			"key", key,
		)
		return l.fallback.TryLock(ctx, key)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			slog.Warn("upvote lock release failed",
				"error", err,
				"key", key,
			)
		}
	}

	return release, true, nil
}

type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}

	return release, true, nil
}
