package service

import (
	"context"
	"errors"
	"fmt"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"

	"gorm.io/gorm"
)

// LedgerService 是套餐与额度的唯一写入口。
// 免费套餐的扣减走数据库的条件更新，余额不会被并发请求扣成负数。
type LedgerService interface {
	// CheckCredits 判断用户当前是否有能力发起一次消耗额度的操作。
	CheckCredits(user *model.User) bool
	// Decrement 消耗一次额度，返回扣减后的余额。付费套餐不扣减。
	Decrement(ctx context.Context, user *model.User) (int, error)
	// ApplySubscriptionEvent 将套餐与额度整体重置为目标套餐的授予值。
	ApplySubscriptionEvent(ctx context.Context, userID, plan string) error
}

type ledgerService struct {
	userRepo repository.UserRepository
}

// NewLedgerService 创建一个新的 LedgerService 实例。
func NewLedgerService(userRepo repository.UserRepository) LedgerService {
	return &ledgerService{userRepo: userRepo}
}

func (s *ledgerService) CheckCredits(user *model.User) bool {
	if model.IsUnlimitedPlan(user.Plan) {
		return true
	}
	return user.CreditsLeft > 0
}

// Decrement 对免费用户执行原子扣减。条件更新未命中说明余额已被并发耗尽。
func (s *ledgerService) Decrement(ctx context.Context, user *model.User) (int, error) {
	if model.IsUnlimitedPlan(user.Plan) {
		return user.CreditsLeft, nil
	}

	decremented, err := s.userRepo.DecrementCredits(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to decrement credits: %w", err)
	}
	if !decremented {
		return 0, apperr.ErrInsufficientCredits
	}

	// 重新读取余额，保证返回的是数据库中的真实值
	fresh, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	user.CreditsLeft = fresh.CreditsLeft
	return fresh.CreditsLeft, nil
}

// ApplySubscriptionEvent 的语义是替换而非累加：
// 同一订阅事件重复投递时结果不变。
func (s *ledgerService) ApplySubscriptionEvent(ctx context.Context, userID, plan string) error {
	credits, ok := model.PlanCredits[plan]
	if !ok {
		return fmt.Errorf("unknown plan %q", plan)
	}
	err := s.userRepo.ResetPlan(ctx, userID, plan, credits)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("failed to apply subscription event: %w", err)
	}
	return nil
}
