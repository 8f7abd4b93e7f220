package model

import (
	"time"
)

// Settlement 结算记录 is one batch payment announcement: a member bundles
// several of their unpaid contributions under one shareable code. The unique
// index on Code is what turns a code collision into a storage-level conflict
// the generator can retry on.
type Settlement struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code              string        `json:"code" gorm:"not null;uniqueIndex;size:32"`
	UserID            uint          `json:"user_id" gorm:"not null;index"`
	PaymentMethod     PaymentMethod `json:"payment_method" gorm:"not null"`
	ContributionCount int           `json:"contribution_count" gorm:"not null"`
	TotalAmount       float64       `json:"total_amount" gorm:"not null"` // CHF
}

// TableName 自定义表名
func (Settlement) TableName() string {
	return "settlements"
}
