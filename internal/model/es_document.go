package model

// EsMessage 是消息在 Elasticsearch 中的索引结构，用于会话全文检索。
type EsMessage struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	PersonaID      string `json:"persona_id"`
	Content        string `json:"content"`
	IsUser         bool   `json:"is_user"`
	CreatedAt      int64  `json:"created_at"`
}
