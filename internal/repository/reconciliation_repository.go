package repository

import (
	"context"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// ReconciliationRepository 持久化需要人工对账的事件。
type ReconciliationRepository interface {
	Create(ctx context.Context, event *model.ReconciliationEvent) error
	ListRecent(ctx context.Context, limit int) ([]model.ReconciliationEvent, error)
}

type reconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository 创建一个新的 ReconciliationRepository 实例。
func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Create(ctx context.Context, event *model.ReconciliationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *reconciliationRepository) ListRecent(ctx context.Context, limit int) ([]model.ReconciliationEvent, error) {
	var events []model.ReconciliationEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
