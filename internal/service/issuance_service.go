package service

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/qrtoken"
	"stagepass/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IssuanceService converts a verified payment into exactly one ticket.
// Ticket creation and the capacity increment commit or roll back together;
// a replayed webhook can never mint a second ticket because payment_id is
// unique on tickets.
type IssuanceService struct {
	db       *gorm.DB
	events   *repository.EventRepository
	tickets  *repository.TicketRepository
	payments *repository.PaymentRepository
	qr       *qrtoken.Service
	logger   *zap.Logger
}

func NewIssuanceService(db *gorm.DB, events *repository.EventRepository, tickets *repository.TicketRepository, payments *repository.PaymentRepository, qr *qrtoken.Service, logger *zap.Logger) *IssuanceService {
	return &IssuanceService{db: db, events: events, tickets: tickets, payments: payments, qr: qr, logger: logger}
}

// IssueResult carries the created ticket plus the raw QR token. The token is
// only available on first issuance; replays get the ticket with an empty
// token since the raw value is never persisted.
type IssueResult struct {
	Ticket   *models.Ticket
	RawToken string
	Replayed bool
}

// IssueForPayment runs the issuance state machine for a successful TICKET
// payment. EventFull marks the payment's issuance FAILED but leaves the
// payment SUCCESS: money was taken, so the reconciliation queue picks it up.
func (s *IssuanceService) IssueForPayment(p *models.Payment) (*IssueResult, error) {
	if p.Status != domain.PaymentSuccess || p.Purpose != domain.PurposeTicket {
		return nil, fmt.Errorf("payment %d not an issuable ticket payment: %w", p.ID, domain.ErrConflict)
	}

	if existing, err := s.tickets.GetByPaymentID(p.ID); err == nil {
		return &IssueResult{Ticket: existing, Replayed: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var meta models.PaymentMetadata
	if err := json.Unmarshal([]byte(p.Metadata), &meta); err != nil || meta.EventID == 0 {
		s.logger.Error("ticket payment with unusable metadata",
			zap.Uint("payment_id", p.ID), zap.String("metadata", p.Metadata))
		s.failIssuance(p.ID, "invalid payment metadata")
		return nil, fmt.Errorf("payment %d metadata: %w", p.ID, domain.ErrIntegrity)
	}

	token, hash, err := s.qr.Issue()
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		EventID:   meta.EventID,
		UserID:    p.UserID,
		PaymentID: p.ID,
		TokenHash: hash,
		Status:    domain.TicketUnused,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		reserved, err := s.events.WithTx(tx).ReserveCapacity(meta.EventID)
		if err != nil {
			return err
		}
		if !reserved {
			return domain.ErrEventFull
		}
		ticket.Number = s.ticketNumber(meta.EventID)
		if err := s.tickets.WithTx(tx).Create(ticket); err != nil {
			return err
		}
		return s.payments.WithTx(tx).SetIssuanceState(p.ID, domain.IssuanceIssued, "")
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race to a concurrent delivery; their ticket stands
			existing, getErr := s.tickets.GetByPaymentID(p.ID)
			if getErr != nil {
				return nil, getErr
			}
			monitoring.TicketIssued("replayed")
			return &IssueResult{Ticket: existing, Replayed: true}, nil
		}
		if errors.Is(err, domain.ErrEventFull) {
			s.logger.Warn("issuance failed, event full",
				zap.Uint("payment_id", p.ID), zap.Uint("event_id", meta.EventID))
			s.failIssuance(p.ID, "event full")
			monitoring.TicketIssued("event_full")
			return nil, domain.ErrEventFull
		}
		return nil, err
	}

	monitoring.TicketIssued("issued")
	s.logger.Info("ticket issued",
		zap.Uint("ticket_id", ticket.ID),
		zap.Uint("payment_id", p.ID),
		zap.Uint("event_id", meta.EventID))
	return &IssueResult{Ticket: ticket, RawToken: token}, nil
}

// Refund invalidates an unused ticket and releases its capacity slot in one
// transaction. The compensating wallet credit is the caller's concern.
func (s *IssuanceService) Refund(ticketID uint) (*models.Ticket, error) {
	t, err := s.tickets.GetByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		refunded, err := s.tickets.WithTx(tx).MarkRefunded(ticketID)
		if err != nil {
			return err
		}
		if !refunded {
			return fmt.Errorf("ticket %d not refundable in state %s: %w", ticketID, t.Status, domain.ErrConflict)
		}
		return s.events.WithTx(tx).ReleaseCapacity(t.EventID)
	})
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketRefunded
	return t, nil
}

func (s *IssuanceService) failIssuance(paymentID uint, reason string) {
	if err := s.payments.SetIssuanceState(paymentID, domain.IssuanceFailed, reason); err != nil {
		s.logger.Error("recording issuance failure", zap.Uint("payment_id", paymentID), zap.Error(err))
	}
}

// ticketNumber builds a human-readable, collision-resistant ticket number.
// The unique index on tickets.number backstops the randomness.
func (s *IssuanceService) ticketNumber(eventID uint) string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return fmt.Sprintf("SP%d-%s", eventID, strings.ToUpper(hex.EncodeToString(buf)))
}
