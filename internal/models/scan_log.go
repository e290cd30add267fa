package models

import "time"

// ScanLog is append-only: one row per admission attempt, successful or not.
// It is the audit trail for door disputes and is never updated or deleted,
// so there is no DeletedAt here.
type ScanLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index" json:"ticket_id"`
	ScannerID uint      `gorm:"not null;index" json:"scanner_id"`
	Result    string    `gorm:"size:20;not null;index" json:"result"` // ADMITTED, DUPLICATE, INVALID, EXPIRED
	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Ticket  Ticket `gorm:"foreignKey:TicketID" json:"-"`
	Scanner User   `gorm:"foreignKey:ScannerID" json:"-"`
}

func (ScanLog) TableName() string {
	return "scan_logs"
}
