package runlock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_ExclusivePerKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "user-1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Acquire(ctx, "user-2")
	require.NoError(t, err)
	other()

	release()
	again, err := l.Acquire(ctx, "user-1")
	require.NoError(t, err)
	again()
}

func TestLocal_ReleaseIsIdempotent(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	release()

	second, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	// A stale release must not free the new holder.
	release()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrLocked)
	second()
}

func TestLocal_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal().Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal_ConcurrentAcquireSingleWinner(t *testing.T) {
	l := NewLocal()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(context.Background(), "same"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestNewRedis_Defaults(t *testing.T) {
	r := NewRedis(nil, "", 0, nil)
	assert.Equal(t, DefaultTTL, r.ttl)
	assert.Equal(t, "curator:run:", r.prefix)
	assert.NotNil(t, r.log)
}

func TestKeepAlive_ExtendsUntilStopped(t *testing.T) {
	stop := make(chan struct{})
	done := make(chan struct{})
	var calls atomic.Int32

	go func() {
		defer close(done)
		keepAlive(stop, 5*time.Millisecond, func() (bool, error) {
			calls.Add(1)
			return true, nil
		}, func(error) {})
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	close(stop)
	<-done

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestKeepAlive_StopsWhenKeyLost(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		defer close(done)
		keepAlive(make(chan struct{}), time.Millisecond, func() (bool, error) {
			calls.Add(1)
			return false, nil
		}, func(error) {})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepAlive did not return after losing the key")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestKeepAlive_RetriesAfterError(t *testing.T) {
	var calls, errs atomic.Int32
	done := make(chan struct{})

	go func() {
		defer close(done)
		keepAlive(make(chan struct{}), time.Millisecond, func() (bool, error) {
			if calls.Add(1) < 3 {
				return true, assert.AnError
			}
			return false, nil
		}, func(error) { errs.Add(1) })
	}()

	<-done
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), errs.Load())
}

// Example: TEST_REDIS_URL=redis://localhost:6379/0 go test ./internal/runlock/
func TestRedis_Integration(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := Dial(ctx, redisURL)
	require.NoError(t, err)
	defer client.Close()

	r := NewRedis(client, "curator:test:", time.Minute, nil)
	key := uuid.NewString()

	release, err := r.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = r.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	again, err := r.Acquire(ctx, key)
	require.NoError(t, err)
	again()
}

func TestRedis_HeldPastTTL(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := Dial(ctx, redisURL)
	require.NoError(t, err)
	defer client.Close()

	r := NewRedis(client, "curator:test:", 300*time.Millisecond, nil)
	key := uuid.NewString()

	release, err := r.Acquire(ctx, key)
	require.NoError(t, err)

	time.Sleep(time.Second)
	_, err = r.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	release()
	again, err := r.Acquire(ctx, key)
	require.NoError(t, err)
	again()
}
