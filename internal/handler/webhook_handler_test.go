package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagepass/config"
	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/qrtoken"
	"stagepass/internal/repository"
	"stagepass/internal/service"
	"stagepass/pkg/paystack"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type webhookFixture struct {
	db       *gorm.DB
	router   *gin.Engine
	gateway  *paystack.Client
	payments *repository.PaymentRepository
	events   *repository.EventRepository
	tickets  *repository.TicketRepository
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Payment{},
		&models.Ticket{},
		&models.ScanLog{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Membership{},
		&models.AuditLog{},
	))

	paymentRepo := repository.NewPaymentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	gateway := paystack.NewClient("http://paystack.invalid", "sk_test", "whsec_test", time.Second)
	issuanceSvc := service.NewIssuanceService(db, eventRepo, ticketRepo, paymentRepo, qrtoken.New("test-qr-secret"), zap.NewNop())
	paymentSvc := service.NewPaymentService(paymentRepo, walletRepo, membershipRepo, issuanceSvc, gateway, &config.Config{}, zap.NewNop())

	r := gin.New()
	h := NewWebhookHandler(paymentSvc, gateway, auditRepo, zap.NewNop())
	r.POST("/api/v1/webhooks/paystack", h.Handle)

	return &webhookFixture{
		db:       db,
		router:   r,
		gateway:  gateway,
		payments: paymentRepo,
		events:   eventRepo,
		tickets:  ticketRepo,
	}
}

func (f *webhookFixture) seedTicketPayment(t *testing.T, capacity int) *models.Payment {
	t.Helper()
	event := &models.Event{Title: "Show", Venue: "Hall", StartsAt: time.Now().Add(time.Hour), PriceKobo: 500000, MaxCapacity: capacity}
	require.NoError(t, f.events.Create(event))
	p := &models.Payment{
		UserID:        1,
		AmountKobo:    event.PriceKobo,
		Currency:      "NGN",
		Reference:     "SP-WEBHOOK1",
		Status:        domain.PaymentPending,
		Purpose:       domain.PurposeTicket,
		Metadata:      fmt.Sprintf(`{"event_id":%d}`, event.ID),
		IssuanceState: domain.IssuanceNone,
	}
	require.NoError(t, f.payments.Create(p))
	return p
}

func (f *webhookFixture) post(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("x-paystack-signature", signature)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func chargeBody(t *testing.T, reference string, amount float64) []byte {
	t.Helper()
	e := paystack.WebhookEvent{Event: "charge.success"}
	e.Data.Reference = reference
	e.Data.Status = "success"
	e.Data.Amount = amount
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return body
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	p := f.seedTicketPayment(t, 5)
	body := chargeBody(t, p.Reference, float64(p.AmountKobo))

	w := f.post(body, "not-a-real-signature")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// nothing settled, nothing issued
	got, err := f.payments.GetByReference(p.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, got.Status)
	_, err = f.tickets.GetByPaymentID(p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWebhookSettlesAndAcks(t *testing.T) {
	f := newWebhookFixture(t)
	p := f.seedTicketPayment(t, 5)
	body := chargeBody(t, p.Reference, float64(p.AmountKobo))

	w := f.post(body, f.gateway.SignBody(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, service.OutcomeSuccess, resp["outcome"])

	got, err := f.payments.GetByReference(p.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	assert.Equal(t, domain.IssuanceIssued, got.IssuanceState)
}

func TestWebhookReplayAcksWithoutDuplicating(t *testing.T) {
	f := newWebhookFixture(t)
	p := f.seedTicketPayment(t, 5)
	body := chargeBody(t, p.Reference, float64(p.AmountKobo))
	sig := f.gateway.SignBody(body)

	require.Equal(t, http.StatusOK, f.post(body, sig).Code)
	w := f.post(body, sig)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.OutcomeAlreadyProcessed, resp["outcome"])

	ticket, err := f.tickets.GetByPaymentID(p.ID)
	require.NoError(t, err)
	require.NotNil(t, ticket)
}

func TestWebhookAcksUnknownReference(t *testing.T) {
	f := newWebhookFixture(t)
	body := chargeBody(t, "SP-NOBODY", 1000)

	// acknowledge so the gateway stops retrying a reference we never created
	w := f.post(body, f.gateway.SignBody(body))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRejectsGarbledBody(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte("{not json")

	w := f.post(body, f.gateway.SignBody(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
