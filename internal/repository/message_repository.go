package repository

import (
	"context"

	"ai-mentor-go/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 定义了消息记录的持久化操作。
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// UpdateContent 将消息内容恰好更新一次（占位 → 终态），幂等。
	UpdateContent(ctx context.Context, messageID, content string) error
	// ListByConversation 按创建时间升序返回消息，相同时间戳按插入序号决胜。
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	// LatestByConversation 返回会话中最新的一条消息，不存在时返回 nil。
	LatestByConversation(ctx context.Context, conversationID string) (*model.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) UpdateContent(ctx context.Context, messageID, content string) error {
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ?", messageID).
		UpdateColumn("content", content).Error
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) LatestByConversation(ctx context.Context, conversationID string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, seq DESC").
		First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}
