package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/pkg/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePersonaInput 是管理员创建画像的入参。
type CreatePersonaInput struct {
	Name           string   `json:"name" binding:"required"`
	PromptTemplate string   `json:"prompt_template" binding:"required"`
	Description    string   `json:"description"`
	Expertise      []string `json:"expertise"`
}

// PersonaService 定义了画像管理的业务操作。读取走 AccessService 的可见性策略，
// 写入仅限管理员。
type PersonaService interface {
	Create(ctx context.Context, input CreatePersonaInput) (*model.Persona, error)
	// UploadAvatar 把头像对象写入存储桶，并更新画像的访问地址。
	UploadAvatar(ctx context.Context, personaID, filename, contentType string, reader io.Reader, size int64) (string, error)
}

type personaService struct {
	personaRepo repository.PersonaRepository
	bucketName  string
}

// NewPersonaService 创建一个新的 PersonaService 实例。
func NewPersonaService(personaRepo repository.PersonaRepository, bucketName string) PersonaService {
	return &personaService{personaRepo: personaRepo, bucketName: bucketName}
}

func (s *personaService) Create(ctx context.Context, input CreatePersonaInput) (*model.Persona, error) {
	persona := &model.Persona{
		ID:             uuid.NewString(),
		Name:           input.Name,
		PromptTemplate: input.PromptTemplate,
		Description:    input.Description,
		Expertise:      input.Expertise,
	}
	if err := s.personaRepo.Create(ctx, persona); err != nil {
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}
	return persona, nil
}

// UploadAvatar 对象名带上画像 ID 前缀，重复上传直接覆盖旧头像。
func (s *personaService) UploadAvatar(ctx context.Context, personaID, filename, contentType string, reader io.Reader, size int64) (string, error) {
	if _, err := s.personaRepo.FindByID(ctx, personaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}

	objectName := fmt.Sprintf("avatars/%s%s", personaID, path.Ext(filename))
	if err := storage.PutObject(ctx, s.bucketName, objectName, reader, size, contentType); err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	avatarURL, err := storage.GetPresignedURL(s.bucketName, objectName, 7*24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to presign avatar url: %w", err)
	}

	if err := s.personaRepo.UpdateAvatarURL(ctx, personaID, avatarURL); err != nil {
		return "", fmt.Errorf("failed to update avatar url: %w", err)
	}
	return avatarURL, nil
}
