package service

import (
	"errors"
	"fmt"
	"strings"

	"stagepass/config"
	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawalService converts wallet balance into payout requests. The coin
// debit and the request row are one transaction: neither exists without the
// other.
type WithdrawalService struct {
	db          *gorm.DB
	withdrawals *repository.WithdrawalRepository
	wallets     *repository.WalletRepository
	accounts    *repository.BankAccountRepository
	rate        decimal.Decimal
	minCoins    int64
	logger      *zap.Logger
}

func NewWithdrawalService(db *gorm.DB, withdrawals *repository.WithdrawalRepository, wallets *repository.WalletRepository, accounts *repository.BankAccountRepository, cfg *config.WalletConfig, logger *zap.Logger) (*WithdrawalService, error) {
	rate, err := decimal.NewFromString(cfg.CoinRateNaira)
	if err != nil || rate.Sign() <= 0 {
		return nil, fmt.Errorf("invalid coin rate %q", cfg.CoinRateNaira)
	}
	return &WithdrawalService{
		db:          db,
		withdrawals: withdrawals,
		wallets:     wallets,
		accounts:    accounts,
		rate:        rate,
		minCoins:    cfg.MinWithdrawCoins,
		logger:      logger,
	}, nil
}

// CoinsToKobo converts at the single configured rate, rounding down.
func (s *WithdrawalService) CoinsToKobo(coins int64) int64 {
	return decimal.NewFromInt(coins).Mul(s.rate).Mul(decimal.NewFromInt(100)).Floor().IntPart()
}

// Request checks preconditions in order (minimum, account ownership and
// verification, no open withdrawal, balance) and reserves the coins
// atomically with the request row. Each failure kind is distinct so the
// client can render the right recovery guidance.
func (s *WithdrawalService) Request(userID, bankAccountID uint, amountCoins int64) (*models.WithdrawalRequest, error) {
	if amountCoins < s.minCoins {
		monitoring.Withdrawal("below_minimum")
		return nil, domain.ErrBelowMinimum
	}

	account, err := s.accounts.GetByID(bankAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if !account.Verified {
		monitoring.Withdrawal("unverified_account")
		return nil, domain.ErrUnverifiedAccount
	}

	if _, err := s.wallets.GetOrCreate(userID); err != nil {
		return nil, err
	}

	w := &models.WithdrawalRequest{
		UserID:        userID,
		BankAccountID: bankAccountID,
		AmountCoins:   amountCoins,
		AmountKobo:    s.CoinsToKobo(amountCoins),
		Status:        domain.WithdrawalPending,
		ReferenceCode: "WD-" + strings.ToUpper(uuid.New().String()[:8]),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// "at most one open withdrawal" is a conditional update on the
		// wallet row, not a read-then-insert; concurrent requests get
		// exactly one claim.
		claimed, err := s.wallets.WithTx(tx).ClaimWithdrawalSlot(userID, w.ReferenceCode)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrPendingExists
		}
		if err := s.withdrawals.WithTx(tx).Create(w); err != nil {
			return err
		}
		// refID = the withdrawal's reference: a retried handler cannot
		// double-debit.
		ref := w.ReferenceCode
		return s.wallets.WithTx(tx).Debit(userID, amountCoins, domain.TxWithdrawal, "withdrawal hold", &ref)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPendingExists) {
			monitoring.Withdrawal("pending_exists")
			return nil, domain.ErrPendingExists
		}
		if errors.Is(err, domain.ErrInsufficientBalance) {
			monitoring.Withdrawal("insufficient_balance")
			return nil, domain.ErrInsufficientBalance
		}
		return nil, err
	}

	monitoring.Withdrawal("accepted")
	s.logger.Info("withdrawal requested",
		zap.Uint("user_id", userID),
		zap.Int64("coins", amountCoins),
		zap.String("reference", w.ReferenceCode))
	return w, nil
}

// MarkProcessing moves PENDING -> PROCESSING (back office picked it up).
func (s *WithdrawalService) MarkProcessing(id uint) (*models.WithdrawalRequest, error) {
	return s.transition(id, domain.WithdrawalPending, domain.WithdrawalProcessing, "")
}

// MarkPaid moves PROCESSING -> PAID once the payout has left the platform
// and frees the user's withdrawal slot in the same transaction.
func (s *WithdrawalService) MarkPaid(id uint) (*models.WithdrawalRequest, error) {
	w, err := s.withdrawals.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.withdrawals.WithTx(tx).Transition(id, domain.WithdrawalProcessing, domain.WithdrawalPaid, "")
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("withdrawal %d not in state %s: %w", id, domain.WithdrawalProcessing, domain.ErrConflict)
		}
		return s.wallets.WithTx(tx).ReleaseWithdrawalSlot(w.UserID, w.ReferenceCode)
	})
	if err != nil {
		return nil, err
	}
	monitoring.Withdrawal("paid")
	return s.withdrawals.GetByID(id)
}

// Reject closes an open withdrawal and restores the reserved coins with a
// compensating ledger credit. Transition and credit are one transaction.
func (s *WithdrawalService) Reject(id uint, reason string) (*models.WithdrawalRequest, error) {
	w, err := s.withdrawals.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !w.Open() {
		return nil, fmt.Errorf("withdrawal %d already %s: %w", id, w.Status, domain.ErrConflict)
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.withdrawals.WithTx(tx).Transition(id, w.Status, domain.WithdrawalRejected, reason)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("withdrawal %d moved concurrently: %w", id, domain.ErrConflict)
		}
		if err := s.wallets.WithTx(tx).ReleaseWithdrawalSlot(w.UserID, w.ReferenceCode); err != nil {
			return err
		}
		ref := "reject-" + w.ReferenceCode
		return s.wallets.WithTx(tx).Credit(w.UserID, w.AmountCoins, domain.TxRefund, "withdrawal rejected", &ref)
	})
	if err != nil {
		return nil, err
	}
	monitoring.Withdrawal("rejected")
	w.Status = domain.WithdrawalRejected
	w.RejectReason = reason
	return w, nil
}

func (s *WithdrawalService) transition(id uint, from, to, reason string) (*models.WithdrawalRequest, error) {
	changed, err := s.withdrawals.Transition(id, from, to, reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("withdrawal %d not in state %s: %w", id, from, domain.ErrConflict)
	}
	return s.withdrawals.GetByID(id)
}
