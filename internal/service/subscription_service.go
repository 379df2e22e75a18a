package service

import (
	"context"
	"fmt"
	"time"

	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/pkg/log"
	"ai-mentor-go/pkg/paystack"
	"ai-mentor-go/pkg/tasks"

	"github.com/google/uuid"
)

// 订阅有效期窗口。
const (
	monthlyWindow = 30 * 24 * time.Hour
	annualWindow  = 365 * 24 * time.Hour
)

// PaymentGateway 抽象了支付网关的出站调用，便于测试替换。
type PaymentGateway interface {
	CreateSession(ctx context.Context, userID, email, plan string, amount int, returnURL string) (*paystack.Session, error)
}

// ActiveSubscriptionView 是当前订阅的展示视图。
type ActiveSubscriptionView struct {
	Subscription  model.Subscription `json:"subscription"`
	DaysRemaining int                `json:"days_remaining"`
}

// CreditsView 是额度查询的展示视图。
type CreditsView struct {
	Plan        string `json:"plan"`
	CreditsLeft int    `json:"credits_left"`
	Unlimited   bool   `json:"unlimited"`
}

// SubscriptionService 定义了订阅计费的业务操作。
// webhook 的契约是"永远应答成功"：内部失败只记录与对账，不向网关暴露。
type SubscriptionService interface {
	CreatePayment(ctx context.Context, user *model.User, plan string, amount int, returnURL string) (*paystack.Session, error)
	// HandleWebhook 处理支付网关的回调。任何失败都在内部收敛，不返回错误。
	HandleWebhook(ctx context.Context, body []byte, signature string)
	Active(ctx context.Context, user *model.User) (*ActiveSubscriptionView, error)
	Credits(user *model.User) CreditsView
}

type subscriptionService struct {
	subRepo      repository.SubscriptionRepository
	ledger       LedgerService
	gateway      PaymentGateway
	secretKey    string
	publishRecon ReconPublisher // 可为 nil
}

// NewSubscriptionService 创建一个新的 SubscriptionService 实例。
func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	ledger LedgerService,
	gateway PaymentGateway,
	secretKey string,
	publishRecon ReconPublisher,
) SubscriptionService {
	return &subscriptionService{
		subRepo:      subRepo,
		ledger:       ledger,
		gateway:      gateway,
		secretKey:    secretKey,
		publishRecon: publishRecon,
	}
}

func (s *subscriptionService) CreatePayment(ctx context.Context, user *model.User, plan string, amount int, returnURL string) (*paystack.Session, error) {
	return s.gateway.CreateSession(ctx, user.ID, user.Email, plan, amount, returnURL)
}

// HandleWebhook 先验签，再筛选事件类型，最后落订阅并重置额度。
// 验签失败与内部失败都会留下对账记录，供后续回放。
func (s *subscriptionService) HandleWebhook(ctx context.Context, body []byte, signature string) {
	if !paystack.VerifySignature(s.secretKey, body, signature) {
		log.Warnf("webhook 验签失败，已忽略该回调")
		s.emitRecon(tasks.ReconciliationTask{
			TaskID: uuid.NewString(),
			Kind:   model.ReconWebhookFailed,
			Detail: "webhook signature verification failed",
		})
		return
	}

	event, err := paystack.ParseWebhook(body)
	if err != nil {
		log.Errorf("解析 webhook 负载失败: %v", err)
		s.emitRecon(tasks.ReconciliationTask{
			TaskID: uuid.NewString(),
			Kind:   model.ReconWebhookFailed,
			Detail: "webhook payload unparseable: " + err.Error(),
		})
		return
	}

	// 只处理成功扣款，其余事件类型直接确认
	if event.Event != paystack.EventChargeSuccess {
		log.Infof("忽略 webhook 事件类型: %s", event.Event)
		return
	}

	userID := event.Data.Metadata.UserID
	plan := event.Data.Metadata.Plan
	reference := event.Data.Reference
	if userID == "" || !model.IsValidPlan(plan) {
		log.Errorf("webhook 元数据不完整或套餐非法: user_id=%q, plan=%q", userID, plan)
		s.emitRecon(tasks.ReconciliationTask{
			TaskID:    uuid.NewString(),
			Kind:      model.ReconWebhookFailed,
			UserID:    userID,
			Reference: reference,
			Detail:    fmt.Sprintf("invalid webhook metadata: user_id=%q, plan=%q", userID, plan),
		})
		return
	}

	window := monthlyWindow
	if plan == model.PlanAnnual {
		window = annualWindow
	}
	now := time.Now()
	sub := &model.Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      plan,
		PaymentID: reference,
		Status:    model.SubscriptionActive,
		StartDate: now,
		EndDate:   now.Add(window),
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		log.Errorf("写入订阅记录失败: %v", err)
		s.emitRecon(tasks.ReconciliationTask{
			TaskID:    uuid.NewString(),
			Kind:      model.ReconWebhookFailed,
			UserID:    userID,
			Reference: reference,
			Detail:    "failed to persist subscription: " + err.Error(),
		})
		return
	}

	if err := s.ledger.ApplySubscriptionEvent(ctx, userID, plan); err != nil {
		log.Errorf("重置套餐与额度失败: %v", err)
		s.emitRecon(tasks.ReconciliationTask{
			TaskID:    uuid.NewString(),
			Kind:      model.ReconWebhookFailed,
			UserID:    userID,
			Reference: reference,
			Detail:    "failed to apply subscription event: " + err.Error(),
		})
		return
	}

	log.Infow("订阅已生效", "user_id", userID, "plan", plan, "reference", reference)
}

func (s *subscriptionService) Active(ctx context.Context, user *model.User) (*ActiveSubscriptionView, error) {
	sub, err := s.subRepo.FindActiveByUser(ctx, user.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	days := int(time.Until(sub.EndDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &ActiveSubscriptionView{Subscription: *sub, DaysRemaining: days}, nil
}

func (s *subscriptionService) Credits(user *model.User) CreditsView {
	return CreditsView{
		Plan:        user.Plan,
		CreditsLeft: user.CreditsLeft,
		Unlimited:   model.IsUnlimitedPlan(user.Plan),
	}
}

func (s *subscriptionService) emitRecon(task tasks.ReconciliationTask) {
	if s.publishRecon == nil {
		return
	}
	if err := s.publishRecon(task); err != nil {
		log.Errorf("投递对账任务失败: kind=%s, %v", task.Kind, err)
	}
}
