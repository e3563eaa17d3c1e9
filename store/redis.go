// store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wfunc/battleship/models"
)

// RedisTable stores JSON-encoded records under <prefix>:<kind>:<id> and keeps
// a sorted set of ids, scored by insertion sequence, for scans.
type RedisTable[T Entity] struct {
	client *redis.Client
	prefix string
}

func NewRedisTable[T Entity](client *redis.Client, prefix, kind string) *RedisTable[T] {
	return &RedisTable[T]{client: client, prefix: prefix + ":" + kind}
}

func (t *RedisTable[T]) recordKey(id string) string { return t.prefix + ":" + id }
func (t *RedisTable[T]) indexKey() string          { return t.prefix + ":index" }
func (t *RedisTable[T]) seqKey() string            { return t.prefix + ":seq" }

func (t *RedisTable[T]) Get(ctx context.Context, id string) (T, error) {
	var v T
	data, err := t.client.Get(ctx, t.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return v, ErrNotFound
		}
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", t.recordKey(id), err)
	}
	return v, nil
}

func (t *RedisTable[T]) Put(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	seq, err := t.client.Incr(ctx, t.seqKey()).Result()
	if err != nil {
		return err
	}

	id := v.Key()
	pipe := t.client.TxPipeline()
	pipe.Set(ctx, t.recordKey(id), data, 0)
	pipe.ZAddNX(ctx, t.indexKey(), redis.Z{Score: float64(seq), Member: id})
	_, err = pipe.Exec(ctx)
	return err
}

func (t *RedisTable[T]) Delete(ctx context.Context, id string) error {
	pipe := t.client.TxPipeline()
	pipe.Del(ctx, t.recordKey(id))
	pipe.ZRem(ctx, t.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (t *RedisTable[T]) FindAll(ctx context.Context, match func(T) bool) ([]T, error) {
	ids, err := t.client.ZRange(ctx, t.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = t.recordKey(id)
	}
	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var result []T
	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			// deleted between ZRANGE and MGET
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		if match(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (t *RedisTable[T]) Count(ctx context.Context) (int, error) {
	n, err := t.client.ZCard(ctx, t.indexKey()).Result()
	return int(n), err
}

// RedisConfig describes the redis backend.
type RedisConfig struct {
	URL    string
	Prefix string
}

// NewRedisStore connects to redis and clears everything under the prefix:
// live game state is not meant to outlive the process.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	s, err := NewRedisStoreWithClient(ctx, client, cfg.Prefix)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// NewRedisStoreWithClient builds a store on an existing client.
func NewRedisStoreWithClient(ctx context.Context, client *redis.Client, prefix string) (*Store, error) {
	if err := flushPrefix(ctx, client, prefix); err != nil {
		return nil, fmt.Errorf("flush %s: %w", prefix, err)
	}
	return &Store{
		Players: NewRedisTable[*models.Player](client, prefix, "player"),
		Rooms:   NewRedisTable[*models.Room](client, prefix, "room"),
		Games:   NewRedisTable[*models.Game](client, prefix, "game"),
		closer:  client.Close,
	}, nil
}

func flushPrefix(ctx context.Context, client *redis.Client, prefix string) error {
	iter := client.Scan(ctx, 0, prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}
