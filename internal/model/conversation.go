package model

import "time"

// Conversation 代表一个用户与一个画像之间的消息线程。
// 首条消息发送时惰性创建；LastMessageAt 单调推进。
type Conversation struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID        string    `gorm:"type:char(36);index;not null" json:"userId"`
	PersonaID     string    `gorm:"type:char(36);index;not null" json:"personaId"`
	Title         string    `gorm:"type:varchar(64);not null" json:"title"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	LastMessageAt time.Time `gorm:"index;not null" json:"lastMessageAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationSummary 是会话列表视图的摘要行。
type ConversationSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	PersonaID        string    `json:"personaId"`
	PersonaName      string    `json:"personaName"`
	PersonaAvatarURL string    `json:"personaAvatarUrl"`
	LastMessage      string    `json:"lastMessage"`
	LastMessageAt    time.Time `json:"lastMessageAt"`
}
