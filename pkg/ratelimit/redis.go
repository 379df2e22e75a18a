package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter 把滑动窗口计数放进 Redis 的 ZSET，多个服务进程共享同一份计数。
// member 用纳秒时间戳保证唯一，score 用于按时间裁剪窗口。
type RedisLimiter struct {
	client    *redis.Client
	window    time.Duration
	threshold int
}

// NewRedisLimiter 创建一个基于共享计数器的限流器。
func NewRedisLimiter(client *redis.Client, threshold int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		window:    window,
		threshold: threshold,
	}
}

// Allow 实现 Limiter 接口。
func (l *RedisLimiter) Allow(ctx context.Context, identity string) (Result, error) {
	key := fmt.Sprintf("ratelimit:%s", identity)
	now := time.Now()
	cutoff := now.Add(-l.window).UnixNano()

	// 裁剪窗口外的成员后统计数量
	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to prune rate limit window: %w", err)
	}

	if countCmd.Val() >= int64(l.threshold) {
		return Result{Allowed: false, RetryAfter: l.window}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = l.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to record rate limit hit: %w", err)
	}

	return Result{Allowed: true}, nil
}
