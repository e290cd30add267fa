package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Venue       string         `gorm:"size:255;not null" json:"venue"`
	StartsAt    time.Time      `gorm:"not null;index" json:"starts_at"`
	PriceKobo   int64          `gorm:"not null" json:"price_kobo"`
	MaxCapacity int            `gorm:"not null" json:"max_capacity"`
	// TicketsSold is only ever moved by the conditional increment in
	// EventRepository; it must never exceed MaxCapacity.
	TicketsSold int            `gorm:"not null;default:0" json:"tickets_sold"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) Remaining() int {
	return e.MaxCapacity - e.TicketsSold
}
