package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/hooplink/internal/roster"
)

// RedisBlobs keeps roster blobs as plain Redis strings under a key prefix.
type RedisBlobs struct {
	client *redis.Client
	prefix string
}

func NewRedisBlobs(client *redis.Client, prefix string) *RedisBlobs {
	return &RedisBlobs{client: client, prefix: prefix}
}

// OpenRedis parses rawURL and pings the server.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func (r *RedisBlobs) GetBlob(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, roster.ErrBlobNotFound
	}
	return data, err
}

func (r *RedisBlobs) PutBlob(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}

var _ roster.Blobs = (*RedisBlobs)(nil)
