package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stagepass/config"
	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/repository"
	"stagepass/pkg/paystack"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settlement outcomes shared by both ingress paths (webhook push and
// client-triggered verify).
const (
	OutcomeSuccess          = "success"
	OutcomeFailed           = "failed"
	OutcomeAmountMismatch   = "amount_mismatch"
	OutcomeAlreadyProcessed = "already_processed"
)

// PaymentService is the verification adapter: both the webhook and the
// verify fallback converge on one settle step, so every payment transitions
// pending -> terminal exactly once and triggers its downstream effect
// exactly once.
type PaymentService struct {
	payments    *repository.PaymentRepository
	wallets     *repository.WalletRepository
	memberships *repository.MembershipRepository
	issuance    *IssuanceService
	gateway     *paystack.Client
	cfg         *config.Config
	logger      *zap.Logger
}

func NewPaymentService(payments *repository.PaymentRepository, wallets *repository.WalletRepository, memberships *repository.MembershipRepository, issuance *IssuanceService, gateway *paystack.Client, cfg *config.Config, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		payments:    payments,
		wallets:     wallets,
		memberships: memberships,
		issuance:    issuance,
		gateway:     gateway,
		cfg:         cfg,
		logger:      logger,
	}
}

// Initiate creates a PENDING payment with a fresh unique reference before
// the client is sent to the gateway checkout.
func (s *PaymentService) Initiate(userID uint, amountKobo int64, purpose string, meta models.PaymentMetadata) (*models.Payment, error) {
	if amountKobo <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrValidation)
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	p := &models.Payment{
		UserID:        userID,
		AmountKobo:    amountKobo,
		Currency:      "NGN",
		Reference:     "SP-" + strings.ToUpper(uuid.New().String()[:13]),
		Status:        domain.PaymentPending,
		Purpose:       purpose,
		Metadata:      string(raw),
		IssuanceState: domain.IssuanceNone,
	}
	if err := s.payments.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// SettleResult is what a verification path reports back to its caller.
type SettleResult struct {
	Outcome string
	Payment *models.Payment
	Issue   *IssueResult
}

// HandleWebhookEvent settles a payment from a (signature-checked) gateway
// webhook delivery. Non charge.success events are acknowledged and ignored.
func (s *PaymentService) HandleWebhookEvent(event *paystack.WebhookEvent) (*SettleResult, error) {
	if event.Event != "charge.success" {
		return &SettleResult{Outcome: OutcomeAlreadyProcessed}, nil
	}
	p, err := s.payments.GetByReference(event.Data.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", event.Data.Reference, domain.ErrNotFound)
		}
		return nil, err
	}
	res, err := s.settle(p, event.Data.Status, event.Data.Amount)
	if err == nil {
		monitoring.PaymentVerified("webhook", res.Outcome)
	}
	return res, err
}

// VerifyByReference is the client-triggered fallback for delayed or missed
// webhooks: it confirms the charge synchronously with the gateway. On
// gateway timeout the payment stays PENDING and the error is retryable.
func (s *PaymentService) VerifyByReference(ctx context.Context, reference string) (*SettleResult, error) {
	p, err := s.payments.GetByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", reference, domain.ErrNotFound)
		}
		return nil, err
	}
	if p.Terminal() {
		return &SettleResult{Outcome: OutcomeAlreadyProcessed, Payment: p}, nil
	}
	data, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrUnreachable) {
			return nil, fmt.Errorf("verify %s: %w", reference, domain.ErrUpstream)
		}
		return nil, err
	}
	res, err := s.settle(p, data.Status, data.Amount)
	if err == nil {
		monitoring.PaymentVerified("verify", res.Outcome)
	}
	return res, err
}

// settle is the single convergence point. The pending->terminal transition
// is a conditional update, so exactly one caller wins; only the winner runs
// the downstream effect.
func (s *PaymentService) settle(p *models.Payment, gatewayStatus string, paidAmount float64) (*SettleResult, error) {
	if p.Terminal() {
		return &SettleResult{Outcome: OutcomeAlreadyProcessed, Payment: p}, nil
	}

	if gatewayStatus != "success" {
		changed, err := s.payments.MarkTerminal(p.ID, domain.PaymentFailed)
		if err != nil {
			return nil, err
		}
		if !changed {
			return &SettleResult{Outcome: OutcomeAlreadyProcessed, Payment: p}, nil
		}
		p.Status = domain.PaymentFailed
		return &SettleResult{Outcome: OutcomeFailed, Payment: p}, nil
	}

	if !amountMatches(p.AmountKobo, paidAmount) {
		s.logger.Warn("payment amount mismatch",
			zap.String("reference", p.Reference),
			zap.Int64("expected_kobo", p.AmountKobo),
			zap.Float64("paid_kobo", paidAmount))
		changed, err := s.payments.MarkTerminal(p.ID, domain.PaymentFailed)
		if err != nil {
			return nil, err
		}
		if !changed {
			return &SettleResult{Outcome: OutcomeAlreadyProcessed, Payment: p}, nil
		}
		p.Status = domain.PaymentFailed
		return &SettleResult{Outcome: OutcomeAmountMismatch, Payment: p}, nil
	}

	changed, err := s.payments.MarkTerminal(p.ID, domain.PaymentSuccess)
	if err != nil {
		return nil, err
	}
	if !changed {
		// a concurrent delivery won the transition and owns the side effects
		return &SettleResult{Outcome: OutcomeAlreadyProcessed, Payment: p}, nil
	}
	p.Status = domain.PaymentSuccess

	res := &SettleResult{Outcome: OutcomeSuccess, Payment: p}
	if err := s.dispatch(p, res); err != nil {
		// The payment is settled; downstream failure must not unsettle it.
		// Flag the payment so the reconciliation queue sees it, whatever
		// the purpose: the webhook is acked and will not retry.
		s.logger.Error("post-payment dispatch",
			zap.String("reference", p.Reference),
			zap.String("purpose", p.Purpose),
			zap.Error(err))
		s.failDelivery(p.ID, err)
	} else {
		s.markDelivered(p)
	}
	return res, nil
}

// Redeliver re-runs the downstream effect of a settled payment whose
// delivery previously failed. Safe to repeat for every purpose: issuance is
// keyed on payment_id, coin credits on the payment reference, and membership
// activation is an upsert.
func (s *PaymentService) Redeliver(paymentID uint) (*SettleResult, error) {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if p.Status != domain.PaymentSuccess {
		return nil, fmt.Errorf("payment %d not settled: %w", paymentID, domain.ErrConflict)
	}
	if p.IssuanceState == domain.IssuanceIssued {
		return nil, fmt.Errorf("payment %d already delivered: %w", paymentID, domain.ErrConflict)
	}
	res := &SettleResult{Outcome: OutcomeSuccess, Payment: p}
	if err := s.dispatch(p, res); err != nil {
		s.failDelivery(p.ID, err)
		return nil, err
	}
	s.markDelivered(p)
	return res, nil
}

// failDelivery keeps a paid-but-undelivered payment visible to admins.
func (s *PaymentService) failDelivery(paymentID uint, derr error) {
	msg := derr.Error()
	if len(msg) > 255 {
		msg = msg[:255]
	}
	if err := s.payments.SetIssuanceState(paymentID, domain.IssuanceFailed, msg); err != nil {
		s.logger.Error("recording delivery failure",
			zap.Uint("payment_id", paymentID), zap.Error(err))
	}
}

// markDelivered closes the delivery bookkeeping for non-ticket purposes;
// ticket issuance records its own state inside the issuance transaction.
func (s *PaymentService) markDelivered(p *models.Payment) {
	if p.Purpose == domain.PurposeTicket {
		return
	}
	if err := s.payments.SetIssuanceState(p.ID, domain.IssuanceIssued, ""); err != nil {
		s.logger.Error("recording delivery",
			zap.Uint("payment_id", p.ID), zap.Error(err))
	}
}

func (s *PaymentService) dispatch(p *models.Payment, res *SettleResult) error {
	switch p.Purpose {
	case domain.PurposeTicket:
		issue, err := s.issuance.IssueForPayment(p)
		if err != nil {
			return err
		}
		res.Issue = issue
		return nil
	case domain.PurposeCoins:
		var meta models.PaymentMetadata
		if err := json.Unmarshal([]byte(p.Metadata), &meta); err != nil || meta.Coins <= 0 {
			s.logger.Error("coin payment with unusable metadata",
				zap.Uint("payment_id", p.ID), zap.String("metadata", p.Metadata))
			return fmt.Errorf("payment %d coin metadata: %w", p.ID, domain.ErrIntegrity)
		}
		ref := p.Reference
		return s.wallets.Credit(p.UserID, meta.Coins, domain.TxPurchase, "coin purchase", &ref)
	case domain.PurposeMembership:
		var meta models.PaymentMetadata
		if err := json.Unmarshal([]byte(p.Metadata), &meta); err != nil || meta.Tier == "" {
			s.logger.Error("membership payment with unusable metadata",
				zap.Uint("payment_id", p.ID), zap.String("metadata", p.Metadata))
			return fmt.Errorf("payment %d membership metadata: %w", p.ID, domain.ErrIntegrity)
		}
		now := time.Now()
		return s.memberships.Activate(&models.Membership{
			UserID:    p.UserID,
			Tier:      meta.Tier,
			Status:    domain.MembershipActive,
			PaymentID: p.ID,
			StartsAt:  now,
			ExpiresAt: now.AddDate(0, 1, 0),
		})
	default:
		return fmt.Errorf("payment %d has unknown purpose %q: %w", p.ID, p.Purpose, domain.ErrIntegrity)
	}
}

// amountMatches tolerates only sub-unit rounding: anything off by a full
// minor unit or more is a mismatch.
func amountMatches(expectedKobo int64, paid float64) bool {
	diff := decimal.NewFromFloat(paid).Sub(decimal.NewFromInt(expectedKobo)).Abs()
	return diff.LessThan(decimal.NewFromInt(1))
}
