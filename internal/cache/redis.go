// Package cache holds the optional Redis-backed pieces: the progress snapshot
// cache and the per-user lock that serializes report compilation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"interntrack/internal/progress"
)

const progressTTL = 10 * time.Minute

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// ProgressCache stores progress snapshots as JSON under progress:<user> and
// the invalidation generation under progress:gen:<user>.
type ProgressCache struct {
	rdb *redis.Client
}

var _ progress.Cache = (*ProgressCache)(nil)

func NewProgressCache(rdb *redis.Client) *ProgressCache {
	return &ProgressCache{rdb: rdb}
}

func progressKey(userID uuid.UUID) string    { return "progress:" + userID.String() }
func generationKey(userID uuid.UUID) string { return "progress:gen:" + userID.String() }

// setIfGeneration writes ARGV[2] to KEYS[2] only while KEYS[1] still holds
// the generation ARGV[1]. A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local gen = tonumber(redis.call('GET', KEYS[1]) or '0')
if gen ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *ProgressCache) Get(ctx context.Context, userID uuid.UUID) (progress.Snapshot, bool, error) {
	val, err := c.rdb.Get(ctx, progressKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return progress.Snapshot{}, false, nil
	}
	if err != nil {
		return progress.Snapshot{}, false, err
	}
	var snap progress.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return progress.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (c *ProgressCache) Generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *ProgressCache) Set(ctx context.Context, userID uuid.UUID, gen int64, snap progress.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	keys := []string{generationKey(userID), progressKey(userID)}
	return setIfGeneration.Run(ctx, c.rdb, keys, gen, b, progressTTL.Milliseconds()).Err()
}

// Invalidate bumps the generation and drops the snapshot in one transaction.
func (c *ProgressCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(userID))
		pipe.Del(ctx, progressKey(userID))
		return nil
	})
	return err
}

// RedisLocker hands out distributed locks so that concurrent compile requests
// from several replicas do not produce duplicate reports.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, log: log}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err != nil {
		return nil, err
	}
	return l.releaser(key, lock.Release), nil
}

func (l *RedisLocker) releaser(key string, release func(context.Context) error) func() {
	return func() {
		// Release runs after the request context may be done.
		if err := release(context.Background()); err != nil {
			l.log.Error("lock release failed; key stays held until its TTL",
				zap.String("key", key),
				zap.Duration("ttl", l.ttl),
				zap.Error(err),
			)
		}
	}
}

// hitScript increments KEYS[1] and starts its window on the first hit.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisCounter counts rate limit hits across replicas.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	return hitScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64()
}
