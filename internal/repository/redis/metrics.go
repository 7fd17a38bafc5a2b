package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ExpiryCounter tracks the total number of holds the sweeper has expired,
// across restarts and instances.
type ExpiryCounter struct {
	rdb *redis.Client
}

func NewExpiryCounter(rdb *redis.Client) *ExpiryCounter {
	return &ExpiryCounter{rdb: rdb}
}

func (c *ExpiryCounter) Add(ctx context.Context, n int64) error {
	return c.rdb.IncrBy(ctx, keyExpiredTotal, n).Err()
}

func (c *ExpiryCounter) Total(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, keyExpiredTotal).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(v, 10, 64)
}
