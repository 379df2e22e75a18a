// Package service 实现了核心业务逻辑。
package service

import (
	"context"
	"errors"
	"time"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"

	"gorm.io/gorm"
)

// UserService 定义了用户相关的业务操作。
type UserService interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
	// TouchLastLogin 记录一次登录活动，失败只记录不阻断。
	TouchLastLogin(ctx context.Context, user *model.User) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) TouchLastLogin(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.LastLogin = &now
	return s.userRepo.Update(ctx, user)
}
