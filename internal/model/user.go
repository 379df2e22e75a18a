// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 套餐类型。付费套餐（monthly/annual）不消耗额度。
const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// PlanCredits 定义了每个套餐在订阅事件时重置到的额度。
var PlanCredits = map[string]int{
	PlanFree:    5,
	PlanMonthly: 100,
	PlanAnnual:  1200,
}

// IsUnlimitedPlan 判断套餐是否不限额度。
func IsUnlimitedPlan(plan string) bool {
	return plan == PlanMonthly || plan == PlanAnnual
}

// IsValidPlan 判断是否为可购买的付费套餐。
func IsValidPlan(plan string) bool {
	return plan == PlanMonthly || plan == PlanAnnual
}

// User 对应于数据库中的 'users' 表。
// Plan 和 CreditsLeft 只通过额度台账（LedgerService）变更。
type User struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name        string     `gorm:"type:varchar(100);not null" json:"name"`
	AvatarURL   string     `gorm:"type:varchar(512)" json:"avatarUrl"`
	Plan        string     `gorm:"type:varchar(16);not null;default:free" json:"plan"`
	CreditsLeft int        `gorm:"not null;default:5" json:"creditsLeft"`
	Role        string     `gorm:"type:varchar(16);not null;default:USER" json:"role"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	LastLogin   *time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
