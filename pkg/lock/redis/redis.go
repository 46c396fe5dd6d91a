package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-queue/pkg/lock"
)

// releaseScript deletes the key only when it still carries our owner
// token, so an expired-and-reacquired lock is never released by the
// previous holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLock struct {
	client *redis.Client
	prefix string
	owner  string
}

type Config struct {
	URL    string
	Prefix string
}

func NewProvider(config Config) (lock.Provider, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "queue:lock:"
	}

	return &redisLock{
		client: client,
		prefix: prefix,
		owner:  uuid.NewString(),
	}, nil
}

func (l *redisLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

func (l *redisLock) Release(ctx context.Context, key string) error {
	if err := l.client.Eval(ctx, releaseScript, []string{l.prefix + key}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
