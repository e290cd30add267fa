package models

import (
	"time"

	"gorm.io/gorm"
)

type BankAccount struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	BankCode      string         `gorm:"size:10;not null" json:"bank_code"`
	BankName      string         `gorm:"size:100" json:"bank_name"`
	AccountNumber string         `gorm:"size:20;not null" json:"account_number"`
	AccountName   string         `gorm:"size:100" json:"account_name"`
	Verified      bool           `gorm:"default:false;index" json:"verified"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}
