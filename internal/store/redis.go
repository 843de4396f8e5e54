package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sentry-link/internal/dispatcher"
)

// RedisConfigStore guarda la configuración recibida por comando en un hash
// por dispositivo: sentry:<device>:config.
type RedisConfigStore struct {
	rdb *redis.Client
	key string
}

func NewRedisConfigStore(rdb *redis.Client, device string) *RedisConfigStore {
	return &RedisConfigStore{rdb: rdb, key: "sentry:" + device + ":config"}
}

// InitRedis abre el cliente y verifica la conexión.
func InitRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func (s *RedisConfigStore) Set(ctx context.Context, key dispatcher.ConfigKey, value string) error {
	if err := s.rdb.HSet(ctx, s.key, string(key), value).Err(); err != nil {
		return fmt.Errorf("redis HSET %s %s: %w", s.key, key, err)
	}
	return nil
}

func (s *RedisConfigStore) Get(ctx context.Context, key dispatcher.ConfigKey) (string, bool, error) {
	val, err := s.rdb.HGet(ctx, s.key, string(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis HGET %s %s: %w", s.key, key, err)
	}
	return val, true, nil
}

// All devuelve toda la configuración guardada.
func (s *RedisConfigStore) All(ctx context.Context) (map[dispatcher.ConfigKey]string, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", s.key, err)
	}
	out := make(map[dispatcher.ConfigKey]string, len(vals))
	for k, v := range vals {
		out[dispatcher.ConfigKey(k)] = v
	}
	return out, nil
}
