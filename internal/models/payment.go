package models

import "time"

type Payment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	AmountKobo int64  `gorm:"not null" json:"amount_kobo"`
	Currency   string `gorm:"size:3;default:'NGN'" json:"currency"`
	// Reference is the gateway transaction reference. The unique index is
	// what makes webhook replay detection work; never relax it.
	Reference string     `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	Status    string     `gorm:"size:20;not null;index" json:"status"`  // PENDING, SUCCESS, FAILED
	Purpose   string     `gorm:"size:20;not null;index" json:"purpose"` // TICKET, COINS, MEMBERSHIP
	Metadata  string     `gorm:"type:text" json:"metadata"`             // JSON purpose context
	// Downstream delivery bookkeeping: ticket issuance, coin credit, or
	// membership activation. A FAILED state on a SUCCESS payment is the
	// manual-reconciliation queue.
	IssuanceState string     `gorm:"size:20;not null;default:'NONE';index" json:"issuance_state"`
	IssuanceError string     `gorm:"size:255" json:"issuance_error,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentMetadata is the decoded shape of Payment.Metadata.
type PaymentMetadata struct {
	EventID uint   `json:"event_id,omitempty"`
	Coins   int64  `json:"coins,omitempty"`
	Tier    string `json:"tier,omitempty"`
}

func (p *Payment) Terminal() bool {
	return p.Status != "PENDING"
}
