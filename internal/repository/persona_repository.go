package repository

import (
	"context"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// PersonaRepository 接口定义了画像数据的持久化操作。
// FindAllOrdered 的排序即全系统唯一的"画像规范顺序"：
// created_at 升序、id 决胜，套餐可见性判断必须复用它。
type PersonaRepository interface {
	Create(ctx context.Context, persona *model.Persona) error
	FindByID(ctx context.Context, personaID string) (*model.Persona, error)
	FindAllOrdered(ctx context.Context) ([]model.Persona, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Persona, error)
	UpdateAvatarURL(ctx context.Context, personaID, avatarURL string) error
}

type personaRepository struct {
	db *gorm.DB
}

// NewPersonaRepository 创建一个新的 PersonaRepository 实例。
func NewPersonaRepository(db *gorm.DB) PersonaRepository {
	return &personaRepository{db: db}
}

func (r *personaRepository) Create(ctx context.Context, persona *model.Persona) error {
	return r.db.WithContext(ctx).Create(persona).Error
}

func (r *personaRepository) FindByID(ctx context.Context, personaID string) (*model.Persona, error) {
	var persona model.Persona
	err := r.db.WithContext(ctx).Where("id = ?", personaID).First(&persona).Error
	if err != nil {
		return nil, err
	}
	return &persona, nil
}

// FindAllOrdered 按规范顺序返回全部画像。
func (r *personaRepository) FindAllOrdered(ctx context.Context) ([]model.Persona, error) {
	var personas []model.Persona
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&personas).Error
	return personas, err
}

func (r *personaRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Persona, error) {
	var personas []model.Persona
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&personas).Error
	return personas, err
}

func (r *personaRepository) UpdateAvatarURL(ctx context.Context, personaID, avatarURL string) error {
	return r.db.WithContext(ctx).
		Model(&model.Persona{}).
		Where("id = ?", personaID).
		UpdateColumn("avatar_url", avatarURL).Error
}
