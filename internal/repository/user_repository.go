// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// UserRepository 接口定义了用户数据的持久化操作。
// 额度相关的写操作是原子的条件更新，避免应用层读后写的竞态。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// DecrementCredits 执行条件递减：仅当 plan='free' 且 credits_left>0 时减一。
	// 返回是否真正发生了递减。
	DecrementCredits(ctx context.Context, userID string) (bool, error)
	// ResetPlan 将套餐与额度整体重置（订阅事件语义：替换而非累加）。
	ResetPlan(ctx context.Context, userID, plan string, credits int) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱从数据库中查找一个用户。
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 更新数据库中一个已存在的用户记录。
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// DecrementCredits 对免费用户执行原子递减，余额在 0 处封底。
// 付费用户与余额为 0 的行不会被命中（RowsAffected=0）。
func (r *userRepository) DecrementCredits(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND plan = ? AND credits_left > 0", userID, model.PlanFree).
		UpdateColumn("credits_left", gorm.Expr("credits_left - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResetPlan 以单条 UPDATE 写入套餐与额度，保证与并发递减之间不会交错出中间态。
func (r *userRepository) ResetPlan(ctx context.Context, userID, plan string, credits int) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"plan": plan, "credits_left": credits})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
