package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is an Adapter backed by a shared Redis instance.
// All keys are namespaced under a prefix so multiple stores can share one
// database without colliding.
type Redis struct {
	client *redis.Client
	prefix string
	ctx    context.Context
}

// RedisConfig configures a Redis adapter.
type RedisConfig struct {
	Prefix string // key prefix, default "tw"
}

// NewRedis creates a Redis-backed adapter around an existing client.
// The caller owns client lifecycle configuration; Close closes it.
func NewRedis(client *redis.Client, config ...RedisConfig) *Redis {
	cfg := RedisConfig{Prefix: "tw"}
	if len(config) > 0 && config[0].Prefix != "" {
		cfg = config[0]
	}
	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		ctx:    context.Background(),
	}
}

func (r *Redis) rawKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *Redis) Put(key, value string) error {
	// Redis reports OOM when maxmemory is exceeded under noeviction.
	err := r.client.Set(r.ctx, r.rawKey(key), value, 0).Err()
	if err != nil && strings.Contains(err.Error(), "OOM") {
		return ErrCapacityExceeded
	}
	return err
}

func (r *Redis) Get(key string) (string, bool, error) {
	val, err := r.client.Get(r.ctx, r.rawKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Delete(key string) error {
	return r.client.Del(r.ctx, r.rawKey(key)).Err()
}

func (r *Redis) Keys() ([]string, error) {
	keys, err := r.client.Keys(r.ctx, r.prefix+":*").Result()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, strings.TrimPrefix(k, r.prefix+":"))
	}
	return result, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Adapter = (*Redis)(nil)
