package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SendLimitRepository counts code sends per key in a Redis sorted-set
// sliding window.
type SendLimitRepository struct {
	client *redis.Client
	prefix string
}

func NewSendLimitRepository(client *redis.Client, prefix string) *SendLimitRepository {
	if prefix == "" {
		prefix = "code_sends"
	}
	return &SendLimitRepository{client: client, prefix: prefix}
}

// Hit records one send at now. When the window already holds limit sends the
// hit is discarded and allowed=false, with retryAfter until the oldest send
// leaves the window.
func (r *SendLimitRepository) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (allowed bool, retryAfter time.Duration, err error) {
	if limit <= 0 || window <= 0 {
		return false, 0, errors.New("limit and window must be positive")
	}

	k := r.key(key)
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()
	threshold := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", "("+threshold)
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis send limit: %w", err)
	}

	if card.Val() <= int64(limit) {
		return true, 0, nil
	}

	if err := r.client.ZRem(ctx, k, member).Err(); err != nil {
		return false, 0, fmt.Errorf("redis zrem: %w", err)
	}

	oldest, err := r.client.ZRangeWithScores(ctx, k, 0, 0).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis zrange: %w", err)
	}
	if len(oldest) == 0 {
		return false, window, nil
	}
	retryAfter = time.Unix(0, int64(oldest[0].Score)).Add(window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter, nil
}

func (r *SendLimitRepository) key(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
