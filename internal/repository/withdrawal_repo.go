package repository

import (
	"time"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.Preload("BankAccount").First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByReference(code string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.Where("reference_code = ?", code).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// HasOpen reports whether the user already has a PENDING or PROCESSING
// withdrawal; at most one may be open at a time.
func (r *WithdrawalRepository) HasOpen(userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.WithdrawalRequest{}).
		Where("user_id = ? AND status IN ?", userID, []string{domain.WithdrawalPending, domain.WithdrawalProcessing}).
		Count(&count).Error
	return count > 0, err
}

// Transition moves a withdrawal from one status to another conditionally;
// returns false when the row was not in the expected state.
func (r *WithdrawalRepository) Transition(id uint, from, to, reason string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if reason != "" {
		updates["reject_reason"] = reason
	}
	if to == domain.WithdrawalPaid {
		now := time.Now()
		updates["paid_at"] = &now
	}
	res := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WithdrawalRepository) ListByUser(userID uint) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&list).Error
	return list, err
}

func (r *WithdrawalRepository) ListByStatus(status string) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	q := r.db.Preload("BankAccount").Order("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&list).Error
	return list, err
}
