package handler

import (
	"net/http"

	"ai-mentor-go/internal/service"

	"github.com/gin-gonic/gin"
)

// PitchHandler 处理路演评估相关的 API 请求。
type PitchHandler struct {
	service service.PitchService
}

// NewPitchHandler 创建一个新的 PitchHandler。
func NewPitchHandler(pitchService service.PitchService) *PitchHandler {
	return &PitchHandler{service: pitchService}
}

type evaluatePitchRequest struct {
	PersonaID string `json:"persona_id" binding:"required"`
	PitchText string `json:"pitch_text" binding:"required"`
}

// Evaluate 处理 POST /api/v1/pitch/evaluate，仅付费套餐可用。
func (h *PitchHandler) Evaluate(c *gin.Context) {
	var req evaluatePitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "请求参数不合法: " + err.Error(),
			"data":    nil,
		})
		return
	}

	view, err := h.service.Evaluate(c.Request.Context(), currentUser(c), req.PersonaID, req.PitchText)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// History 返回当前用户的评估历史，按时间降序。
func (h *PitchHandler) History(c *gin.Context) {
	views, err := h.service.History(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views)
}

// Get 返回单条评估记录。
func (h *PitchHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}
