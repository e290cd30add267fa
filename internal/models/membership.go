package models

import (
	"time"

	"gorm.io/gorm"
)

type Membership struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Tier      string         `gorm:"size:20;not null" json:"tier"`
	Status    string         `gorm:"size:20;not null;index" json:"status"` // ACTIVE, EXPIRED
	PaymentID uint           `gorm:"not null" json:"payment_id"`
	StartsAt  time.Time      `gorm:"not null" json:"starts_at"`
	ExpiresAt time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}
