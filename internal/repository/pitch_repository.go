package repository

import (
	"context"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// PitchRepository 定义了路演评估记录的持久化操作。评估一旦写入不再变更。
type PitchRepository interface {
	Create(ctx context.Context, eval *model.PitchEvaluation) error
	ListByUser(ctx context.Context, userID string) ([]model.PitchEvaluation, error)
	FindByIDForUser(ctx context.Context, evaluationID, userID string) (*model.PitchEvaluation, error)
}

type pitchRepository struct {
	db *gorm.DB
}

// NewPitchRepository 创建一个新的 PitchRepository 实例。
func NewPitchRepository(db *gorm.DB) PitchRepository {
	return &pitchRepository{db: db}
}

func (r *pitchRepository) Create(ctx context.Context, eval *model.PitchEvaluation) error {
	return r.db.WithContext(ctx).Create(eval).Error
}

func (r *pitchRepository) ListByUser(ctx context.Context, userID string) ([]model.PitchEvaluation, error) {
	var evals []model.PitchEvaluation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&evals).Error
	return evals, err
}

func (r *pitchRepository) FindByIDForUser(ctx context.Context, evaluationID, userID string) (*model.PitchEvaluation, error) {
	var eval model.PitchEvaluation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", evaluationID, userID).
		First(&eval).Error
	if err != nil {
		return nil, err
	}
	return &eval, nil
}
