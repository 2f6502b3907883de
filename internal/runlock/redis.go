package runlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonathan/resource-curator/internal/logging"
)

// DefaultTTL bounds how long a crashed holder can keep a key. A live holder
// extends the key every third of the TTL for as long as the run lasts.
const DefaultTTL = 10 * time.Minute

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the expiry only if the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Locker shared by every process pointed at the same server.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *logging.Logger
}

// NewRedis returns a Redis locker. A non-positive ttl selects DefaultTTL.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, log *logging.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "curator:run:"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, log: logging.OrNop(log)}
}

// Dial parses a redis:// URL and pings the server.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	full := r.prefix + key

	ok, err := r.client.SetNX(ctx, full, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(stop, r.ttl/3, func() (bool, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			n, err := extendScript.Run(ctx, r.client, []string{full}, token, r.ttl.Milliseconds()).Int()
			return n == 1, err
		}, func(err error) {
			r.log.Warn("[PIPELINE] Failed to extend run lock", "key", full, "error", err)
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// The caller's ctx may already be done when the run ends.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{full}, token).Err(); err != nil && err != redis.Nil {
				r.log.Warn("[PIPELINE] Failed to release run lock", "key", full, "error", err)
			}
		})
	}, nil
}

// keepAlive calls extend every interval until stop is closed or extend
// reports the key is no longer ours. Failed calls are reported and retried on
// the next tick.
func keepAlive(stop <-chan struct{}, interval time.Duration, extend func() (bool, error), onErr func(error)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			held, err := extend()
			if err != nil {
				onErr(err)
				continue
			}
			if !held {
				return
			}
		}
	}
}
