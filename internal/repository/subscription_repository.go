package repository

import (
	"context"
	"time"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// SubscriptionRepository 定义了订阅记录的持久化操作。
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	// FindActiveByUser 返回用户按结束时间最晚的 active 订阅，不存在时返回 nil。
	FindActiveByUser(ctx context.Context, userID string, now time.Time) (*model.Subscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建一个新的 SubscriptionRepository 实例。
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) FindActiveByUser(ctx context.Context, userID string, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		Order("end_date DESC").
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
