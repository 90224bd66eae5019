package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const redisPingTimeout = 3 * time.Second

// NewRedisClient connects the session backend named by REDIS_URL and checks it
// answers before the server starts taking logins.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, oops.Code("SESSION_REDIS_CONFIG").Errorf("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.Code("SESSION_REDIS_CONFIG").Wrapf(err, "parse redis url")
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("SESSION_REDIS_UNAVAILABLE").
			With("addr", opts.Addr).
			Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	return client, nil
}
