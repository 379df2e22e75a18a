package model

import "time"

// Message 代表会话中的一条消息。
// 会话内按 CreatedAt 全序排列，相同时间戳按 Seq 插入顺序决胜。
// 助手消息以空占位写入，流结束后内容恰好变更一次。
type Message struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	Seq            uint64    `gorm:"autoIncrement;uniqueIndex" json:"-"`
	UserID         string    `gorm:"type:char(36);index;not null" json:"userId"`
	PersonaID      string    `gorm:"type:char(36);not null" json:"personaId"`
	ConversationID string    `gorm:"type:char(36);index;not null" json:"conversationId"`
	Content        string    `gorm:"type:text" json:"content"`
	IsUser         bool      `gorm:"not null" json:"isUser"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
