package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter 是进程内的滑动窗口限流器。
// 每次判定前都会清理窗口外的时间戳，内存占用随活跃身份数有界增长。
// 多实例部署下各进程独立计数，全局精确公平不在保证范围内。
type MemoryLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	history   map[string][]time.Time
	now       func() time.Time // 可注入，便于测试
}

// NewMemoryLimiter 创建一个进程内限流器。
func NewMemoryLimiter(threshold int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window:    window,
		threshold: threshold,
		history:   make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Allow 实现 Limiter 接口。
func (l *MemoryLimiter) Allow(_ context.Context, identity string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// 1. 清理窗口外的时间戳
	recent := l.history[identity][:0]
	for _, ts := range l.history[identity] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	// 2. 达到阈值则拒绝，不记录本次请求
	if len(recent) >= l.threshold {
		l.history[identity] = recent
		return Result{Allowed: false, RetryAfter: l.window}, nil
	}

	// 3. 记录本次请求并放行
	l.history[identity] = append(recent, now)
	return Result{Allowed: true}, nil
}

// Reset 清空全部计数状态，仅用于测试与进程内生命周期管理。
func (l *MemoryLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = make(map[string][]time.Time)
}
