package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contribution 会费记录 is one recorded donation. All PII columns hold
// encrypted envelopes at rest; the logic layer decrypts them on every read.
type Contribution struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint    `json:"user_id" gorm:"not null;index"`
	Amount float64 `json:"amount" gorm:"not null"` // CHF

	FirstName  string `json:"first_name" gorm:"not null"`
	LastName   string `json:"last_name" gorm:"not null"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`

	// GennervogtID references the member responsible for collection.
	GennervogtID *uint `json:"gennervogt_id"`

	Paid           bool          `json:"paid" gorm:"not null;default:false"`
	PaymentMethod  PaymentMethod `json:"payment_method" gorm:"not null;default:'cash'"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"not null;default:'unpaid'"`
	SettlementCode *string       `json:"settlement_code" gorm:"size:32;index"`
}

// TableName 自定义表名
func (Contribution) TableName() string {
	return "contributions"
}

// BeforeCreate assigns the opaque id.
func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
