package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"couponocr/pkg/coupon"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "couponocr:extraction:"

// Redis stores extractions as JSON values with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to url and pings the server.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*coupon.Extraction, bool, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var x coupon.Extraction
	if err := json.Unmarshal(data, &x); err != nil {
		return nil, false, fmt.Errorf("decode cached extraction: %w", err)
	}
	return &x, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, x *coupon.Extraction) error {
	data, err := json.Marshal(x)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
