package model

import (
	"time"
)

// Role separates the trusted admin paths from member self-service.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User 用户 is a portal account. Password holds a bcrypt hash.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `json:"username" gorm:"not null;uniqueIndex"`
	Email    string `json:"email"`
	Password string `json:"-" gorm:"not null"`
	Role     Role   `json:"role" gorm:"not null;default:'member'"`
}

// TableName 自定义表名
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account may use the trusted admin operations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
