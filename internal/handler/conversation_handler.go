package handler

import (
	"net/http"
	"strconv"

	"ai-mentor-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与会话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(convService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: convService}
}

// List 返回当前用户的会话摘要列表，按最后活动时间降序。
func (h *ConversationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	summaries, err := h.service.List(c.Request.Context(), currentUser(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summaries)
}

// Search 在当前用户的消息里做全文检索。
func (h *ConversationHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少查询参数 q",
			"data":    nil,
		})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	hits, err := h.service.SearchMessages(c.Request.Context(), currentUser(c), query, size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, hits)
}

// Get 返回单个会话及其消息，消息按时间升序。
func (h *ConversationHandler) Get(c *gin.Context) {
	messageLimit, _ := strconv.Atoi(c.DefaultQuery("message_limit", "0"))

	detail, err := h.service.Get(c.Request.Context(), currentUser(c), c.Param("id"), messageLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

// Delete 删除一个会话及其全部消息。
func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
