package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisMaxUpdateAttempts = 32

// RedisStore implements Store on Redis. Keys are namespaced with a prefix so
// several deployments can share one database.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL (redis://host:port/db) and verifies the
// connection.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) k(key string) string { return s.prefix + key }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.k(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.k(key), value, 0).Err() // no expiration
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.k(k)
	}
	return s.client.Del(ctx, full...).Err()
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.k(prefix))+"*", 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Update uses WATCH/MULTI/EXEC and retries when another writer touched one
// of the watched keys between the reads and the commit.
func (s *RedisStore) Update(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.k(k)
	}

	attempt := func(rtx *redis.Tx) error {
		tx := newBufferedTx(keys, func(key string) ([]byte, error) {
			v, err := rtx.Get(ctx, s.k(key)).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil, ErrNotFound
			}
			return v, err
		})
		if err := fn(tx); err != nil {
			return err
		}
		if tx.err != nil {
			return tx.err
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return tx.each(func(key string, value []byte) error {
				if value == nil {
					pipe.Del(ctx, s.k(key))
				} else {
					pipe.Set(ctx, s.k(key), value, 0)
				}
				return nil
			})
		})
		return err
	}

	for i := 0; i < redisMaxUpdateAttempts; i++ {
		err := s.client.Watch(ctx, attempt, full...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update: too much contention on %v", keys)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
