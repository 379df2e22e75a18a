// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"time"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 定义了会话记录的持久化操作。
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	// FindByIDForUser 仅返回属于该用户的会话，越权访问按不存在处理。
	FindByIDForUser(ctx context.Context, conversationID, userID string) (*model.Conversation, error)
	// TouchLastMessage 推进会话的最后活动时间戳。
	TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error
	// ListByUser 按最后活动时间降序分页返回会话。
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error)
	// DeleteWithMessages 在同一事务内先删消息后删会话，保证引用完整性。
	DeleteWithMessages(ctx context.Context, conversationID string) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepository) FindByIDForUser(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		UpdateColumn("last_message_at", at).Error
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_message_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	return convs, err
}

// DeleteWithMessages 把两步删除放进一个事务：任一步失败则整体回滚，
// 不会留下只删了一半的会话。
func (r *conversationRepository) DeleteWithMessages(ctx context.Context, conversationID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", conversationID).Delete(&model.Conversation{}).Error
	})
}
