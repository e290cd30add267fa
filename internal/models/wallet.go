package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet caches the coin balance for reads. The wallet_transactions ledger is
// the source of truth: BalanceCoins must always equal the sum of committed
// ledger entries for the user.
type Wallet struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceCoins int64          `gorm:"not null;default:0" json:"balance_coins"`
	TotalEarned  int64          `gorm:"not null;default:0" json:"total_earned"`
	TotalSpent   int64          `gorm:"not null;default:0" json:"total_spent"`
	// OpenWithdrawalRef holds the reference of the user's open withdrawal,
	// if any. It is claimed with a conditional update (only while NULL), so
	// two concurrent requests can never both open a withdrawal.
	OpenWithdrawalRef *string `gorm:"size:64" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
