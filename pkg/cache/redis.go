package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	Client *redis.Client
}

// Locker is the subset of RedisClient used for short-lived mutual exclusion.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// releaseScript deletes the key only if it still holds our value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.Client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "acquire lock %s", key)
	}
	return ok, nil
}

func (r *RedisClient) ReleaseLock(ctx context.Context, key, value string) error {
	if err := releaseScript.Run(ctx, r.Client, []string{key}, value).Err(); err != nil && err != redis.Nil {
		return errors.Wrapf(err, "release lock %s", key)
	}
	return nil
}

// Get returns the cached value and whether it was present.
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	return val, true, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Wrapf(r.Client.Set(ctx, key, value, ttl).Err(), "set %s", key)
}

// Mark stores a flag key until ttl elapses.
func (r *RedisClient) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return errors.Wrapf(r.Client.Set(ctx, key, "1", ttl).Err(), "mark %s", key)
}

func (r *RedisClient) IsMarked(ctx context.Context, key string) (bool, error) {
	n, err := r.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrapf(err, "exists %s", key)
	}
	return n > 0, nil
}

// DeletePattern removes every key matching pattern. SCAN is used instead of KEYS
// so large keyspaces do not block the server.
func (r *RedisClient) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", pattern)
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.Client.Del(ctx, keys...).Err(), "del")
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}
