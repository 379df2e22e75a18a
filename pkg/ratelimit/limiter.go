// Package ratelimit 提供了按身份标识计数的滑动窗口限流器。
// 两种实现共用同一个接口：进程内实现用于单实例部署，
// Redis 实现把计数器放到共享存储，供多实例部署使用。
package ratelimit

import (
	"context"
	"time"
)

// Result 是一次放行判定的结果。
type Result struct {
	Allowed bool
	// RetryAfter 在被拒绝时给出建议的重试间隔（等于窗口长度）。
	RetryAfter time.Duration
}

// Limiter 判定某个身份标识的请求是否放行。
// 标识是已认证用户的 token，匿名请求则退化为 "anon:<client-ip>"。
type Limiter interface {
	Allow(ctx context.Context, identity string) (Result, error)
}
