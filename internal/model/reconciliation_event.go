package model

import "time"

// 对账事件类型。
const (
	ReconCreditUnfinalized = "credit_spent_message_unfinalized"
	ReconWebhookFailed     = "webhook_processing_failed"
)

// ReconciliationEvent 记录需要人工对账的部分失败状态。
// 例如额度已扣但助手消息未落库，或 webhook 内部处理失败但已向网关应答成功。
type ReconciliationEvent struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(64);index;not null" json:"kind"`
	UserID    string    `gorm:"type:char(36);index" json:"userId"`
	Reference string    `gorm:"type:varchar(128)" json:"reference"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ReconciliationEvent) TableName() string {
	return "reconciliation_events"
}
