package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const incrWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 and tonumber(ARGV[1]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`

// Redis shares cache and rate-limit state between API instances.
type Redis struct {
	client redis.UniversalClient
	prefix string
	incr   *redis.Script
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		incr:   redis.NewScript(incrWindowScript),
	}
}

func (r *Redis) key(key string) string {
	return Key(r.prefix, key)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	res, err := r.incr.Run(ctx, r.client, []string{r.key(key)}, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr: %w", err)
	}
	if len(res) < 2 {
		return 0, 0, errors.New("invalid incr script response")
	}

	remaining := time.Duration(0)
	if res[1] > 0 {
		remaining = time.Duration(res[1]) * time.Millisecond
	}
	return res[0], remaining, nil
}

// Sweep is a no-op: redis expires keys itself.
func (r *Redis) Sweep(context.Context) (int, error) {
	return 0, nil
}
