package cache

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const tagKeyPrefix = "tag:"

// RedisService keeps each tag as a set of the keys filed under it. A tag set
// expires with the newest entry filed under it.
type RedisService struct {
	client *redis.Client
}

func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisService(ctx context.Context, addr, password string, db int) (*RedisService, error) {
	client := NewRedis(addr, password, db)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrapf(err, "connect redis %s", addr)
	}
	return NewRedisServiceFromClient(client), nil
}

func NewRedisServiceFromClient(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (s *RedisService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, duration)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKeyPrefix+tag, key)
		if duration > 0 {
			pipe.Expire(ctx, tagKeyPrefix+tag, duration)
		}
	}
	_, err := pipe.Exec(ctx)
	return pkgerrors.Wrap(err, "cache set")
}

func (s *RedisService) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "cache get")
	}
	return data, nil
}

func (s *RedisService) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := tagKeyPrefix + tag
		keys, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			return pkgerrors.Wrapf(err, "cache invalidate %s", tag)
		}
		if err := s.client.Del(ctx, append(keys, tagKey)...).Err(); err != nil {
			return pkgerrors.Wrapf(err, "cache invalidate %s", tag)
		}
	}
	return nil
}
