// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"

	"github.com/gin-gonic/gin"
)

// currentUser 取出 AuthMiddleware 写入的用户对象。
func currentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}

// respondOK 按统一信封返回成功数据。
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    data,
	})
}

// respondError 把业务错误映射为 HTTP 状态码并返回统一信封。
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, gin.H{
		"code":    status,
		"message": errorMessage(err),
		"data":    nil,
	})
}

func errorMessage(err error) string {
	var rl *apperr.RateLimitedError
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "未认证或凭证已过期"
	case errors.Is(err, apperr.ErrNotFound):
		return "资源不存在"
	case errors.Is(err, apperr.ErrInsufficientCredits):
		return "额度已用完，请升级套餐"
	case errors.Is(err, apperr.ErrPlanRestricted):
		return "该功能需要付费套餐"
	case errors.As(err, &rl):
		return "请求过于频繁，请稍后重试"
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return "AI服务暂时不可用，请稍后重试"
	case errors.Is(err, apperr.ErrUpstreamRejected):
		return "AI服务拒绝了本次请求"
	default:
		return "服务器内部错误"
	}
}
