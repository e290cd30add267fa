package repository

import (
	"time"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"gorm.io/gorm"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) WithTx(tx *gorm.DB) *TicketRepository {
	return &TicketRepository{db: tx}
}

func (r *TicketRepository) Create(t *models.Ticket) error {
	return r.db.Create(t).Error
}

func (r *TicketRepository) GetByID(id uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) GetByPaymentID(paymentID uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := r.db.Where("payment_id = ?", paymentID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) ListByUser(userID uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.Preload("Event").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&tickets).Error
	return tickets, err
}

// AdmitIfUnused flips UNUSED -> ADMITTED in a single conditional update.
// Two scanners racing on the same ticket get exactly one true between them.
func (r *TicketRepository) AdmitIfUnused(id uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, domain.TicketUnused).
		Updates(map[string]interface{}{
			"status":      domain.TicketAdmitted,
			"admitted_at": &now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkRefunded invalidates an UNUSED ticket for refund; admitted tickets
// cannot be refunded through this path.
func (r *TicketRepository) MarkRefunded(id uint) (bool, error) {
	res := r.db.Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, domain.TicketUnused).
		Update("status", domain.TicketRefunded)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TicketRepository) CountByEvent(eventID uint, status string) (int64, error) {
	var count int64
	q := r.db.Model(&models.Ticket{}).Where("event_id = ?", eventID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}
