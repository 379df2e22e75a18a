package handler

import (
	"github.com/gin-gonic/gin"
)

// UserHandler 处理与用户信息相关的 API 请求。
type UserHandler struct{}

// NewUserHandler 创建一个新的 UserHandler。
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me 返回当前用户的完整信息。
func (h *UserHandler) Me(c *gin.Context) {
	respondOK(c, currentUser(c))
}
