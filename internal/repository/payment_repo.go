package repository

import (
	"time"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByReference(ref string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("reference = ?", ref).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkTerminal transitions PENDING -> status exactly once. The condition is
// in the UPDATE itself; a replayed webhook or a racing verify call gets
// changed=false and must not re-run side effects.
func (r *PaymentRepository) MarkTerminal(id uint, status string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Updates(map[string]interface{}{
			"status":      status,
			"verified_at": &now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetIssuanceState records the ticket-issuance outcome for a paid TICKET
// payment.
func (r *PaymentRepository) SetIssuanceState(id uint, state, issuanceErr string) error {
	return r.db.Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"issuance_state": state,
			"issuance_error": issuanceErr,
		}).Error
}

// ListFailedIssuance returns settled payments whose downstream delivery
// (ticket, coins, membership) failed: the manual reconciliation queue.
func (r *PaymentRepository) ListFailedIssuance() ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("status = ? AND issuance_state = ?", domain.PaymentSuccess, domain.IssuanceFailed).
		Order("id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) ListByUser(userID uint, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
