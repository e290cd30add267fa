package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWithdrawal(t *testing.T, d *deps) *WithdrawalService {
	t.Helper()
	svc, err := NewWithdrawalService(d.db, d.withdrawals, d.wallets, d.accounts, testWalletConfig(), zap.NewNop())
	require.NoError(t, err)
	return svc
}

func (d *deps) createBankAccount(t *testing.T, userID uint, verified bool) *models.BankAccount {
	t.Helper()
	a := &models.BankAccount{
		UserID:        userID,
		BankCode:      "058",
		BankName:      "GTBank",
		AccountNumber: "0123456789",
		AccountName:   "Test Fan",
		Verified:      verified,
	}
	require.NoError(t, d.accounts.Create(a))
	return a
}

func TestWithdrawalRequest(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 5000, domain.TxPurchase, "coin purchase", nil))

	w, err := svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPending, w.Status)
	// 2000 coins at 0.50 naira each = 1000 naira = 100000 kobo
	assert.Equal(t, int64(100000), w.AmountKobo)
	assert.NotEmpty(t, w.ReferenceCode)

	// coins are reserved immediately
	wallet, err := d.wallets.GetByUserID(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), wallet.BalanceCoins)
}

func TestWithdrawalBelowMinimum(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 5000, domain.TxPurchase, "coin purchase", nil))

	_, err := svc.Request(fan.ID, account.ID, 999)
	assert.ErrorIs(t, err, domain.ErrBelowMinimum)
}

func TestWithdrawalUnverifiedAccount(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, false)
	require.NoError(t, d.wallets.Credit(fan.ID, 5000, domain.TxPurchase, "coin purchase", nil))

	_, err := svc.Request(fan.ID, account.ID, 2000)
	assert.ErrorIs(t, err, domain.ErrUnverifiedAccount)
}

func TestWithdrawalForeignAccount(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	other := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, other.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 5000, domain.TxPurchase, "coin purchase", nil))

	_, err := svc.Request(fan.ID, account.ID, 2000)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestWithdrawalPendingExists(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 10000, domain.TxPurchase, "coin purchase", nil))

	_, err := svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)

	_, err = svc.Request(fan.ID, account.ID, 2000)
	assert.ErrorIs(t, err, domain.ErrPendingExists)
}

func TestWithdrawalConcurrentRequestsOpenOne(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 50000, domain.TxPurchase, "coin purchase", nil))

	const racers = 8
	var opened, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Request(fan.ID, account.ID, 2000)
			switch {
			case err == nil:
				atomic.AddInt64(&opened, 1)
			case errors.Is(err, domain.ErrPendingExists):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected request error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), opened, "exactly one request wins the open slot")
	assert.Equal(t, int64(racers-1), rejected)

	// exactly one reservation was debited
	wallet, err := d.wallets.GetByUserID(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(48000), wallet.BalanceCoins)
	sum, err := d.wallets.LedgerSum(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.BalanceCoins, sum)
}

func TestWithdrawalPaidAllowsNextRequest(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 10000, domain.TxPurchase, "coin purchase", nil))

	w, err := svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)
	_, err = svc.MarkProcessing(w.ID)
	require.NoError(t, err)

	// the slot stays held while the payout is in flight
	_, err = svc.Request(fan.ID, account.ID, 2000)
	assert.ErrorIs(t, err, domain.ErrPendingExists)

	_, err = svc.MarkPaid(w.ID)
	require.NoError(t, err)

	// a paid withdrawal is closed; the next request is allowed
	_, err = svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 1500, domain.TxPurchase, "coin purchase", nil))

	_, err := svc.Request(fan.ID, account.ID, 2000)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// the failed request must leave neither a row nor a debit behind
	open, err := d.withdrawals.HasOpen(fan.ID)
	require.NoError(t, err)
	assert.False(t, open)
	wallet, err := d.wallets.GetByUserID(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), wallet.BalanceCoins)
}

func TestWithdrawalLifecycle(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 5000, domain.TxPurchase, "coin purchase", nil))

	w, err := svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)

	w, err = svc.MarkProcessing(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalProcessing, w.Status)

	// skipping states is not allowed
	_, err = svc.MarkProcessing(w.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	w, err = svc.MarkPaid(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPaid, w.Status)

	// paid withdrawals never give the coins back
	wallet, err := d.wallets.GetByUserID(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), wallet.BalanceCoins)
}

func TestWithdrawalReject(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	fan := d.createUser(t, domain.RoleFan)
	account := d.createBankAccount(t, fan.ID, true)
	require.NoError(t, d.wallets.Credit(fan.ID, 5000, domain.TxPurchase, "coin purchase", nil))

	w, err := svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)

	w, err = svc.Reject(w.ID, "account name mismatch")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, w.Status)
	assert.Equal(t, "account name mismatch", w.RejectReason)

	// the reserved coins come back via a compensating credit
	wallet, err := d.wallets.GetByUserID(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), wallet.BalanceCoins)

	sum, err := d.wallets.LedgerSum(fan.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.BalanceCoins, sum)

	// a rejected withdrawal is closed; the next request is allowed
	_, err = svc.Request(fan.ID, account.ID, 2000)
	require.NoError(t, err)
}

func TestCoinsToKoboRoundsDown(t *testing.T) {
	d := newDeps(t)
	svc := newWithdrawal(t, d)
	// 3 coins at 0.50 naira = 1.50 naira = 150 kobo, exact
	assert.Equal(t, int64(150), svc.CoinsToKobo(3))
	assert.Equal(t, int64(50000), svc.CoinsToKobo(1000))
}
