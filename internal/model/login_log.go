package model

import (
	"time"
)

// LoginLog 登录日志 is one append-only audit row per login attempt. UserID is
// nil when the submitted username matched no account. IPAddress is stored as
// an encrypted envelope. Rows are never updated or deleted by the portal.
type LoginLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserID    *uint  `json:"user_id" gorm:"index"`
	IPAddress string `json:"ip_address" gorm:"not null"`
	Success   bool   `json:"success" gorm:"not null"`
}

// TableName 自定义表名
func (LoginLog) TableName() string {
	return "login_logs"
}
