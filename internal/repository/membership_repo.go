package repository

import (
	"errors"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) WithTx(tx *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

func (r *MembershipRepository) GetByUser(userID uint) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Activate upserts the user's membership to the given tier. Called once per
// successful MEMBERSHIP payment.
func (r *MembershipRepository) Activate(m *models.Membership) error {
	existing, err := r.GetByUser(m.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.db.Create(m).Error
	}
	existing.Tier = m.Tier
	existing.Status = domain.MembershipActive
	existing.PaymentID = m.PaymentID
	existing.StartsAt = m.StartsAt
	existing.ExpiresAt = m.ExpiresAt
	return r.db.Save(existing).Error
}
