package model

import "time"

// 订阅状态。
const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)

// Subscription 对应于数据库中的 'subscriptions' 表。
// 套餐与额度的权威来源：由支付 webhook 对账写入。
type Subscription struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);index;not null" json:"userId"`
	Plan      string    `gorm:"type:varchar(16);not null" json:"plan"`
	PaymentID string    `gorm:"type:varchar(128);not null" json:"paymentId"`
	Status    string    `gorm:"type:varchar(16);not null" json:"status"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
