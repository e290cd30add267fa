package repository

import (
	"errors"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"gorm.io/gorm"
)

// errDuplicateReference marks an idempotent replay inside the ledger
// transaction so the balance update is rolled back. It never escapes: the
// caller sees a plain success.
var errDuplicateReference = errors.New("duplicate ledger reference")

// WalletRepository owns all balance changes. Every credit/debit appends a
// wallet_transactions row and moves the cached balance in one transaction;
// the ledger stays replayable as the source of truth.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a repository bound to an outer transaction so callers can
// compose a credit/debit with their own writes atomically.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID}
	if err := r.db.Create(w).Error; err != nil {
		// lost a create race; the row exists now
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetByUserID(userID)
		}
		return nil, err
	}
	return w, nil
}

// Credit appends a positive ledger entry and increments the cached balance
// and total_earned. Idempotent per refID: a replay with an already-applied
// reference is a no-op success.
func (r *WalletRepository) Credit(userID uint, amount int64, txType, reason string, refID *string) error {
	if amount <= 0 {
		return domain.ErrValidation
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := (&WalletRepository{db: tx}).GetOrCreate(userID); err != nil {
			return err
		}
		entry := &models.WalletTransaction{
			UserID:      userID,
			AmountCoins: amount,
			Type:        txType,
			Reason:      reason,
			Reference:   refID,
		}
		if err := tx.Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateReference
			}
			return err
		}
		return tx.Model(&models.Wallet{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"balance_coins": gorm.Expr("balance_coins + ?", amount),
				"total_earned":  gorm.Expr("total_earned + ?", amount),
			}).Error
	})
	if errors.Is(err, errDuplicateReference) {
		return nil
	}
	return err
}

// Debit appends a negative ledger entry and decrements the cached balance;
// it fails atomically with ErrInsufficientBalance when the balance would go
// negative. Idempotent per refID like Credit.
func (r *WalletRepository) Debit(userID uint, amount int64, txType, reason string, refID *string) error {
	if amount <= 0 {
		return domain.ErrValidation
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		entry := &models.WalletTransaction{
			UserID:      userID,
			AmountCoins: -amount,
			Type:        txType,
			Reason:      reason,
			Reference:   refID,
		}
		if err := tx.Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateReference
			}
			return err
		}
		// The balance guard lives in the WHERE clause, not in application
		// code: concurrent debits cannot both pass a stale read.
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND balance_coins >= ?", userID, amount).
			Updates(map[string]interface{}{
				"balance_coins": gorm.Expr("balance_coins - ?", amount),
				"total_spent":   gorm.Expr("total_spent + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientBalance
		}
		return nil
	})
	if errors.Is(err, errDuplicateReference) {
		return nil
	}
	return err
}

// ClaimWithdrawalSlot marks ref as the user's open withdrawal, succeeding
// only while no other withdrawal is open. The guard lives in the WHERE
// clause; concurrent claims get exactly one true between them.
func (r *WalletRepository) ClaimWithdrawalSlot(userID uint, ref string) (bool, error) {
	res := r.db.Model(&models.Wallet{}).
		Where("user_id = ? AND open_withdrawal_ref IS NULL", userID).
		Update("open_withdrawal_ref", ref)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseWithdrawalSlot clears the open-withdrawal claim when the named
// withdrawal reaches a closed state. A stale ref releases nothing.
func (r *WalletRepository) ReleaseWithdrawalSlot(userID uint, ref string) error {
	return r.db.Model(&models.Wallet{}).
		Where("user_id = ? AND open_withdrawal_ref = ?", userID, ref).
		Update("open_withdrawal_ref", nil).Error
}

func (r *WalletRepository) ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txs []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// LedgerSum replays the ledger for a user. Used by integrity checks: the
// result must equal the cached balance.
func (r *WalletRepository) LedgerSum(userID uint) (int64, error) {
	var sum *int64
	err := r.db.Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(amount_coins)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
