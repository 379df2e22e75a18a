package service

import (
	"context"
	"errors"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"

	"gorm.io/gorm"
)

// AccessService 实现套餐可见性策略。
// 免费用户只能看到规范顺序（created_at 升序、id 决胜）下的前 N 个画像，
// 列表过滤与单个画像的访问判断必须基于同一份顺序。
type AccessService interface {
	// VisiblePersonas 返回当前用户可见的画像，保持规范顺序。
	VisiblePersonas(ctx context.Context, user *model.User) ([]model.Persona, error)
	// GetPersona 返回指定画像；套餐不可见时返回 ErrPlanRestricted。
	GetPersona(ctx context.Context, user *model.User, personaID string) (*model.Persona, error)
	// CanEvaluatePitch 判断用户是否可以使用路演评估功能（仅付费套餐）。
	CanEvaluatePitch(user *model.User) bool
}

type accessService struct {
	personaRepo repository.PersonaRepository
	freeLimit   int
}

// NewAccessService 创建一个新的 AccessService 实例。
func NewAccessService(personaRepo repository.PersonaRepository, freeLimit int) AccessService {
	if freeLimit <= 0 {
		freeLimit = 3
	}
	return &accessService{personaRepo: personaRepo, freeLimit: freeLimit}
}

func (s *accessService) VisiblePersonas(ctx context.Context, user *model.User) ([]model.Persona, error) {
	personas, err := s.personaRepo.FindAllOrdered(ctx)
	if err != nil {
		return nil, err
	}
	if model.IsUnlimitedPlan(user.Plan) {
		return personas, nil
	}
	if len(personas) > s.freeLimit {
		personas = personas[:s.freeLimit]
	}
	return personas, nil
}

// GetPersona 先确认画像存在，再复用列表的可见性判断。
// 画像不存在与越权访问对外表现不同：前者 404，后者 402。
func (s *accessService) GetPersona(ctx context.Context, user *model.User, personaID string) (*model.Persona, error) {
	persona, err := s.personaRepo.FindByID(ctx, personaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if model.IsUnlimitedPlan(user.Plan) {
		return persona, nil
	}

	visible, err := s.VisiblePersonas(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range visible {
		if visible[i].ID == personaID {
			return persona, nil
		}
	}
	return nil, apperr.ErrPlanRestricted
}

func (s *accessService) CanEvaluatePitch(user *model.User) bool {
	return model.IsUnlimitedPlan(user.Plan)
}
