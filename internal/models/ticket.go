package models

import "time"

type Ticket struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	EventID uint `gorm:"not null;index" json:"event_id"`
	UserID  uint `gorm:"not null;index" json:"user_id"`
	// PaymentID is unique: at most one ticket per successful payment.
	PaymentID uint   `gorm:"not null;uniqueIndex" json:"payment_id"`
	Number    string `gorm:"size:32;uniqueIndex;not null" json:"number"`
	// TokenHash is the keyed digest of the QR token. The raw token is never
	// persisted; a database leak cannot forge admission.
	TokenHash  string     `gorm:"size:64;not null" json:"-"`
	Status     string     `gorm:"size:20;not null;index" json:"status"` // UNUSED, ADMITTED, REFUNDED, INVALID
	AdmittedAt *time.Time `json:"admitted_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Event   Event   `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Payment Payment `gorm:"foreignKey:PaymentID" json:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"-"`
}

func (Ticket) TableName() string {
	return "tickets"
}
