package models

import (
	"time"

	"gorm.io/gorm"
)

type WithdrawalRequest struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        uint   `gorm:"not null;index" json:"user_id"`
	BankAccountID uint   `gorm:"not null;index" json:"bank_account_id"`
	AmountCoins   int64  `gorm:"not null" json:"amount_coins"`
	AmountKobo    int64  `gorm:"not null" json:"amount_kobo"` // converted at the configured coin rate
	Status        string `gorm:"size:20;not null;index" json:"status"` // PENDING, PROCESSING, PAID, REJECTED
	ReferenceCode string `gorm:"size:64;uniqueIndex;not null" json:"reference_code"`
	RejectReason  string `gorm:"size:255" json:"reject_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User        User        `gorm:"foreignKey:UserID" json:"-"`
	BankAccount BankAccount `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

func (w *WithdrawalRequest) Open() bool {
	return w.Status == "PENDING" || w.Status == "PROCESSING"
}
