package repository

import (
	"stagepass/internal/models"

	"gorm.io/gorm"
)

type BankAccountRepository struct {
	db *gorm.DB
}

func NewBankAccountRepository(db *gorm.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) Create(a *models.BankAccount) error {
	return r.db.Create(a).Error
}

func (r *BankAccountRepository) GetByID(id uint) (*models.BankAccount, error) {
	var a models.BankAccount
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *BankAccountRepository) ListByUser(userID uint) ([]models.BankAccount, error) {
	var list []models.BankAccount
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *BankAccountRepository) SetVerified(id uint, verified bool) error {
	return r.db.Model(&models.BankAccount{}).
		Where("id = ?", id).
		Update("verified", verified).Error
}
