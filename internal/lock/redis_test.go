package lock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRedisLocker connects to DORM_TEST_REDIS_ADDR or skips the test.
func newRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	addr := os.Getenv("DORM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DORM_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	l := NewRedisLocker(client, 2*time.Second)
	l.prefix = "dormitory:test:" + t.Name() + ":"
	return l
}

func TestRedisLockerExclusive(t *testing.T) {
	l := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, RoomKey(1), StudentKey(1))
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, StudentKey(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := l.Lock(ctx, StudentKey(1))
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerSerializes(t *testing.T) {
	l := newRedisLocker(t)
	ctx := context.Background()

	var mu sync.Mutex
	counter, inside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, RoomKey(7))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			assert.Equal(t, 1, inside)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			counter++
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, counter)
}

func TestRedisLockerDoesNotReleaseForeignKey(t *testing.T) {
	l := newRedisLocker(t)
	ctx := context.Background()

	key := l.prefix + RoomKey(3)
	require.NoError(t, l.client.Set(ctx, key, "someone-else", time.Second).Err())
	l.release([]string{key}, "my-token")

	v, err := l.client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestRedisLockerHoldsPastTTL(t *testing.T) {
	l := newRedisLocker(t)
	l.ttl = 300 * time.Millisecond
	ctx := context.Background()

	unlock, err := l.Lock(ctx, RoomKey(9))
	require.NoError(t, err)

	time.Sleep(3 * l.ttl)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, RoomKey(9))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	exists, err := l.client.Exists(ctx, l.prefix+RoomKey(9)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
