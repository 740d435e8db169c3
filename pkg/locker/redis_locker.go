package locker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/pkg/intelligence"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares session locks across instances with SET NX PX.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger logger.ILogger
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration, logger logger.ILogger) *RedisLocker {
	return &RedisLocker{
		rdb:    rdb,
		prefix: "lock:context:",
		ttl:    ttl,
		wait:   wait,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, intelligence.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release with a fresh context so a cancelled request still frees the key
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("LOCKER", "Failed to release lock", map[string]interface{}{
					"key":   redisKey,
					"error": err.Error(),
				})
			}
		})
	}, nil
}
