package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/service"
	"ai-mentor-go/pkg/paystack"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubscriptionService struct {
	gotBody      []byte
	gotSignature string
}

func (s *stubSubscriptionService) CreatePayment(_ context.Context, _ *model.User, _ string, _ int, _ string) (*paystack.Session, error) {
	return &paystack.Session{CheckoutURL: "https://pay.example", Reference: "r1"}, nil
}

func (s *stubSubscriptionService) HandleWebhook(_ context.Context, body []byte, signature string) {
	s.gotBody = body
	s.gotSignature = signature
}

func (s *stubSubscriptionService) Active(_ context.Context, _ *model.User) (*service.ActiveSubscriptionView, error) {
	return nil, nil
}

func (s *stubSubscriptionService) Credits(user *model.User) service.CreditsView {
	return service.CreditsView{Plan: user.Plan, CreditsLeft: user.CreditsLeft}
}

// webhook 的契约是永远应答 200，即使签名缺失或内部处理失败。
func TestWebhookAlwaysAcknowledges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubSubscriptionService{}
	router := gin.New()
	router.POST("/webhook", NewSubscriptionHandler(stub).Webhook)

	body := []byte(`{"event":"charge.success"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Paystack-Signature", "sig-value")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, stub.gotBody)
	assert.Equal(t, "sig-value", stub.gotSignature)

	// 没有签名头也一样确认
	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`garbage`)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
