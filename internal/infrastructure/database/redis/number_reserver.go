// internal/infrastructure/database/redis/number_reserver.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const numberKeyPrefix = "order:number:"

// NumberReserver claims order numbers across API instances with SETNX.
// A claim expires after ttl, long after the checkout transaction has committed
// or rolled back.
type NumberReserver struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewNumberReserver creates a reserver on top of a Redis client
func NewNumberReserver(rdb redis.Cmdable, ttl time.Duration) *NumberReserver {
	return &NumberReserver{rdb: rdb, ttl: ttl}
}

// Reserve returns true when this caller now owns the number
func (r *NumberReserver) Reserve(ctx context.Context, number string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, numberKeyPrefix+number, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve order number: %w", err)
	}
	return ok, nil
}
