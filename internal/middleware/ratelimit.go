// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"ai-mentor-go/pkg/log"
	"ai-mentor-go/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 对指定路径前缀下的请求做滑动窗口限流。
// 限流身份优先取 Bearer token（认证前的原始凭证），
// 匿名请求退化为按客户端 IP 计数。
func RateLimitMiddleware(limiter ratelimit.Limiter, pathPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pathPrefix != "" && !strings.HasPrefix(c.Request.URL.Path, pathPrefix) {
			c.Next()
			return
		}

		identity := rateLimitIdentity(c)
		result, err := limiter.Allow(c.Request.Context(), identity)
		if err != nil {
			// 限流器故障时放行，不让计数后端拖垮整个 API
			log.Errorf("限流器判定失败，本次请求放行: %v", err)
			c.Next()
			return
		}

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "请求过于频繁，请稍后重试",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// rateLimitIdentity 提取限流身份：有凭证按凭证计数，无凭证按 IP 计数。
// 凭证无效与否在此无关紧要，认证中间件会在后面拒绝它。
func rateLimitIdentity(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(authHeader, bearerPrefix) {
		if tok := strings.TrimPrefix(authHeader, bearerPrefix); tok != "" {
			return tok
		}
	}
	return "anon:" + c.ClientIP()
}
