// Package paystack 提供了与 Paystack 支付网关交互的客户端。
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-mentor-go/internal/config"
	"ai-mentor-go/internal/model"
)

// PlanPricing 定义了每个付费套餐的价格（美分）。
var PlanPricing = map[string]int{
	model.PlanMonthly: 999,  // $9.99/月
	model.PlanAnnual:  4900, // $49/年
}

// Session 是一次支付会话的创建结果。
type Session struct {
	CheckoutURL string `json:"checkout_url"`
	Reference   string `json:"reference"`
}

// Client 封装了对 Paystack API 的调用。
type Client struct {
	cfg    config.PaystackConfig
	client *http.Client
}

// NewClient 创建一个新的 Paystack 客户端。
func NewClient(cfg config.PaystackConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal paystack payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call paystack api: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode paystack response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		return nil, fmt.Errorf("paystack api error: %s (status %d)", out.Message, resp.StatusCode)
	}
	return out.Data, nil
}

type initializePayload struct {
	Amount      int               `json:"amount"`
	Email       string            `json:"email"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url"`
	Metadata    map[string]string `json:"metadata"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// CreateSession 创建一个支付会话，返回结账链接与支付引用号。
// amount 以美分计，必须与套餐定价一致。
func (c *Client) CreateSession(ctx context.Context, userID, email, plan string, amount int, returnURL string) (*Session, error) {
	if !model.IsValidPlan(plan) {
		return nil, fmt.Errorf("cannot create payment for plan %q", plan)
	}
	if expected := PlanPricing[plan]; expected != amount {
		return nil, fmt.Errorf("invalid amount for %s plan: got %d, expected %d", plan, amount, expected)
	}
	if returnURL == "" {
		returnURL = c.cfg.CallbackURL
	}

	payload := initializePayload{
		Amount:      amount * 100, // 转换为 kobo（Paystack 的最小货币单位）
		Email:       email,
		Reference:   fmt.Sprintf("%s_%s_%d", userID, plan, time.Now().Unix()),
		CallbackURL: returnURL,
		Metadata: map[string]string{
			"user_id": userID,
			"plan":    plan,
		},
	}

	data, err := c.doRequest(ctx, "POST", "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var init initializeData
	if err := json.Unmarshal(data, &init); err != nil {
		return nil, fmt.Errorf("failed to decode initialize data: %w", err)
	}
	return &Session{CheckoutURL: init.AuthorizationURL, Reference: init.Reference}, nil
}

// VerifyPayment 向 Paystack 查询一笔支付的状态。
func (c *Client) VerifyPayment(ctx context.Context, reference string) (json.RawMessage, error) {
	return c.doRequest(ctx, "GET", "/transaction/verify/"+reference, nil)
}
