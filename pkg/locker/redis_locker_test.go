package locker

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/pkg/intelligence"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	return redis.NewClient(opts)
}

func TestRedisLockerExcludesAndTimesOut(t *testing.T) {
	rdb := newRedisClient(t)
	defer rdb.Close()

	l := NewRedisLocker(rdb, 5*time.Second, 50*time.Millisecond, logger.NewNopLogger())
	ctx := context.Background()
	key := "locker-test-" + time.Now().Format("150405.000000")

	unlock, err := l.Lock(ctx, key)
	require.NoError(t, err)

	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, intelligence.ErrLockTimeout)

	unlock()
	again, err := l.Lock(ctx, key)
	require.NoError(t, err)
	again()
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	rdb := newRedisClient(t)

	core, logs := observer.New(zap.DebugLevel)
	l := NewRedisLocker(rdb, 5*time.Second, 50*time.Millisecond, logger.NewZapLoggerFrom(zap.New(core)))

	unlock, err := l.Lock(context.Background(), "locker-test-release-"+time.Now().Format("150405.000000"))
	require.NoError(t, err)

	// the key expires on its TTL; the release itself cannot reach redis
	require.NoError(t, rdb.Close())
	unlock()

	entries := logs.FilterMessage("Failed to release lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
}
