package repository

import (
	"stagepass/internal/models"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

func (r *EventRepository) Create(e *models.Event) error {
	return r.db.Create(e).Error
}

func (r *EventRepository) GetByID(id uint) (*models.Event, error) {
	var e models.Event
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) List() ([]models.Event, error) {
	var events []models.Event
	err := r.db.Order("starts_at ASC").Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(e *models.Event) error {
	return r.db.Save(e).Error
}

// ReserveCapacity bumps tickets_sold only while below max_capacity. The
// guard is in the WHERE clause so concurrent issuance at the boundary cannot
// oversell. Returns false when the event is full.
func (r *EventRepository) ReserveCapacity(eventID uint) (bool, error) {
	res := r.db.Model(&models.Event{}).
		Where("id = ? AND tickets_sold < max_capacity", eventID).
		UpdateColumn("tickets_sold", gorm.Expr("tickets_sold + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseCapacity undoes one reservation (refunds). Floors at zero.
func (r *EventRepository) ReleaseCapacity(eventID uint) error {
	return r.db.Model(&models.Event{}).
		Where("id = ? AND tickets_sold > 0", eventID).
		UpdateColumn("tickets_sold", gorm.Expr("tickets_sold - 1")).Error
}
