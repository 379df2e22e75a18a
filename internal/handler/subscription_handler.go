package handler

import (
	"io"
	"net/http"

	"ai-mentor-go/internal/service"
	"ai-mentor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler 处理订阅计费相关的 API 请求。
type SubscriptionHandler struct {
	service service.SubscriptionService
}

// NewSubscriptionHandler 创建一个新的 SubscriptionHandler。
func NewSubscriptionHandler(subService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: subService}
}

type createPaymentRequest struct {
	Plan      string `json:"plan" binding:"required"`
	Amount    int    `json:"amount" binding:"required"`
	ReturnURL string `json:"return_url"`
}

// CreatePayment 创建一个支付会话，返回结账链接。
func (h *SubscriptionHandler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "请求参数不合法: " + err.Error(),
			"data":    nil,
		})
		return
	}

	session, err := h.service.CreatePayment(c.Request.Context(), currentUser(c), req.Plan, req.Amount, req.ReturnURL)
	if err != nil {
		log.Errorf("创建支付会话失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "创建支付会话失败",
			"data":    nil,
		})
		return
	}
	respondOK(c, session)
}

// Webhook 接收支付网关的回调。
// 契约是永远应答 200：任何内部失败都在服务层收敛为日志与对账事件，
// 避免网关反复重投。
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Errorf("读取 webhook 请求体失败: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	signature := c.GetHeader("X-Paystack-Signature")
	h.service.HandleWebhook(c.Request.Context(), body, signature)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Active 返回当前用户的有效订阅，没有时 data 为 null。
func (h *SubscriptionHandler) Active(c *gin.Context) {
	view, err := h.service.Active(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// Credits 返回当前用户的套餐与剩余额度。
func (h *SubscriptionHandler) Credits(c *gin.Context) {
	respondOK(c, h.service.Credits(currentUser(c)))
}
