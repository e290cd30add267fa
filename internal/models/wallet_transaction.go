package models

import "time"

// WalletTransaction is an append-only ledger entry. Rows are created only by
// WalletRepository.Credit/Debit; nothing else writes balances.
type WalletTransaction struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	AmountCoins int64 `gorm:"not null" json:"amount_coins"` // positive = credit, negative = debit
	Type       string `gorm:"size:30;not null;index" json:"type"` // PURCHASE, BONUS, WITHDRAWAL, ADMIN_ADJUSTMENT, VOTE, SPEND, REFUND
	Reason     string `gorm:"size:255" json:"reason"`
	// Reference makes credits/debits idempotent: replaying an operation with
	// the same reference is a no-op, enforced by the unique index.
	Reference *string   `gorm:"size:128;uniqueIndex" json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
