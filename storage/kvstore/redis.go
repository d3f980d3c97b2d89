package kvstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 5 * time.Second

// RedisBackend stores blobs as plain redis strings under a key prefix.
// Processes sharing one redis share the same collections, last write wins per key.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

var _ Backend = (*RedisBackend)(nil) // interface compliance check

// NewRedisBackend wraps an already connected client.
func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

// Client returns the underlying client, shared with the change relay.
func (b *RedisBackend) Client() *redis.Client { return b.rdb }

// ConnectRedis opens a client and pings it.
func ConnectRedis(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

func (b *RedisBackend) Load(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := b.rdb.Get(ctx, b.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (b *RedisBackend) Save(values map[string][]byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, b.prefix+k, v, 0)
		}
		return nil
	})
	return err
}

func (b *RedisBackend) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return b.rdb.Del(ctx, b.prefix+key).Err()
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
