package service

import (
	"encoding/json"
	"testing"
	"time"

	"stagepass/config"
	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/qrtoken"
	"stagepass/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deps bundles everything the service tests wire against one in-memory
// database. Each test gets its own database, so state never leaks between
// them.
type deps struct {
	db          *gorm.DB
	users       *repository.UserRepository
	events      *repository.EventRepository
	payments    *repository.PaymentRepository
	tickets     *repository.TicketRepository
	scanLogs    *repository.ScanLogRepository
	wallets     *repository.WalletRepository
	withdrawals *repository.WithdrawalRepository
	accounts    *repository.BankAccountRepository
	memberships *repository.MembershipRepository
	qr          *qrtoken.Service
	issuance    *IssuanceService
}

func newDeps(t *testing.T) *deps {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	// one connection: concurrent goroutines share the in-memory database
	// instead of each pool slot opening an empty one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Payment{},
		&models.Ticket{},
		&models.ScanLog{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.WithdrawalRequest{},
		&models.BankAccount{},
		&models.Membership{},
		&models.AuditLog{},
	))

	d := &deps{
		db:          db,
		users:       repository.NewUserRepository(db),
		events:      repository.NewEventRepository(db),
		payments:    repository.NewPaymentRepository(db),
		tickets:     repository.NewTicketRepository(db),
		scanLogs:    repository.NewScanLogRepository(db),
		wallets:     repository.NewWalletRepository(db),
		withdrawals: repository.NewWithdrawalRepository(db),
		accounts:    repository.NewBankAccountRepository(db),
		memberships: repository.NewMembershipRepository(db),
		qr:          qrtoken.New("test-qr-secret"),
	}
	d.issuance = NewIssuanceService(db, d.events, d.tickets, d.payments, d.qr, zap.NewNop())
	return d
}

func (d *deps) createUser(t *testing.T, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     "user-" + role + "-" + time.Now().Format("150405.000000000"),
		Email:        "user-" + role + "-" + time.Now().Format("150405.000000000") + "@test.local",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, d.users.Create(u))
	return u
}

func (d *deps) createEvent(t *testing.T, capacity int) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:       "Live Show",
		Venue:       "Main Hall",
		StartsAt:    time.Now().Add(2 * time.Hour),
		PriceKobo:   500000,
		MaxCapacity: capacity,
	}
	require.NoError(t, d.events.Create(e))
	return e
}

// createTicketPayment is a SUCCESS ticket payment awaiting issuance, as the
// settle step produces it.
func (d *deps) createTicketPayment(t *testing.T, userID, eventID uint, ref string) *models.Payment {
	t.Helper()
	meta, err := json.Marshal(models.PaymentMetadata{EventID: eventID})
	require.NoError(t, err)
	p := &models.Payment{
		UserID:        userID,
		AmountKobo:    500000,
		Currency:      "NGN",
		Reference:     ref,
		Status:        domain.PaymentSuccess,
		Purpose:       domain.PurposeTicket,
		Metadata:      string(meta),
		IssuanceState: domain.IssuanceNone,
	}
	require.NoError(t, d.payments.Create(p))
	return p
}

func testWalletConfig() *config.WalletConfig {
	return &config.WalletConfig{CoinRateNaira: "0.50", MinWithdrawCoins: 1000}
}
