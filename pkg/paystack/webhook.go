package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// 支付网关事件类型。目前只关心成功扣款。
const EventChargeSuccess = "charge.success"

// WebhookMetadata 是发起支付时写入、回调时原样带回的元数据。
type WebhookMetadata struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

// WebhookData 是事件负载的 data 部分。
type WebhookData struct {
	Reference string          `json:"reference"`
	Metadata  WebhookMetadata `json:"metadata"`
}

// WebhookEvent 是 Paystack 推送的事件负载。
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// VerifySignature 校验 X-Paystack-Signature 请求头：
// 原始请求体的 HMAC-SHA512（密钥为 secret key）的十六进制值，常量时间比较。
func VerifySignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook 解析事件负载。
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return &event, nil
}
