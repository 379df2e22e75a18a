// Package apperr 定义了核心业务的错误分类及其到 HTTP 状态码的映射。
package apperr

import (
	"errors"
	"net/http"
	"time"
)

var (
	// ErrUnauthenticated token 缺失、无效或已过期。
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound 用户/画像/会话/消息不存在。
	ErrNotFound = errors.New("not found")
	// ErrInsufficientCredits 免费套餐额度耗尽。
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrPlanRestricted 功能需要付费套餐。
	ErrPlanRestricted = errors.New("plan restricted")
	// ErrUpstreamUnavailable 上游服务瞬时故障，重试耗尽后仍失败。
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamRejected 上游服务拒绝请求，不可重试。
	ErrUpstreamRejected = errors.New("upstream rejected")
	// ErrConfiguration 凭证缺失，进程启动阶段致命。
	ErrConfiguration = errors.New("configuration error")
)

// RateLimitedError 表示请求被限流，携带建议的重试间隔。
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return "rate limited"
}

// HTTPStatus 将错误分类映射为 HTTP 状态码，未识别的错误落到 500。
func HTTPStatus(err error) int {
	var rl *RateLimitedError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrPlanRestricted):
		return http.StatusPaymentRequired
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpstreamRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
