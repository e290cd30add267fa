package service

import (
	"errors"
	"time"

	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/qrtoken"
	"stagepass/internal/repository"
	"stagepass/internal/ws"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// scanWindow is how long after an event's start time its tickets stay
// scannable. Late arrivals are normal; next-day scans are not.
const scanWindow = 24 * time.Hour

// AdmissionService consumes QR tokens at the venue. The UNUSED -> ADMITTED
// transition is one conditional update, so concurrent scanners on the same
// ticket produce exactly one admission. Every attempt, rejected or not,
// appends exactly one scan log row.
type AdmissionService struct {
	tickets  *repository.TicketRepository
	events   *repository.EventRepository
	scanLogs *repository.ScanLogRepository
	qr       *qrtoken.Service
	scanHub  *ws.ScanHub
	logger   *zap.Logger
}

func NewAdmissionService(tickets *repository.TicketRepository, events *repository.EventRepository, scanLogs *repository.ScanLogRepository, qr *qrtoken.Service, scanHub *ws.ScanHub, logger *zap.Logger) *AdmissionService {
	return &AdmissionService{tickets: tickets, events: events, scanLogs: scanLogs, qr: qr, scanHub: scanHub, logger: logger}
}

type AdmitResult struct {
	Admitted bool           `json:"admitted"`
	Ticket   *models.Ticket `json:"ticket"`
	Warnings []string       `json:"warnings"`
}

// Admit validates the token and runs the admission state machine.
func (s *AdmissionService) Admit(ticketID, scannerID uint, token string) (*AdmitResult, error) {
	ticket, err := s.tickets.GetByID(ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	// Forged and garbled tokens are adversarial steady state, not errors.
	if !s.qr.Verify(token, ticket.TokenHash) {
		return s.reject(ticket, scannerID, domain.ScanInvalid, "token mismatch", "Invalid ticket token")
	}

	switch ticket.Status {
	case domain.TicketRefunded:
		return s.reject(ticket, scannerID, domain.ScanInvalid, "ticket refunded", "Ticket was refunded")
	case domain.TicketInvalid:
		return s.reject(ticket, scannerID, domain.ScanInvalid, "ticket invalidated", "Ticket is invalid")
	}

	if event, err := s.events.GetByID(ticket.EventID); err != nil {
		// a ticket pointing at an unloadable event is an integrity signal;
		// the scan proceeds on the ticket's own state
		s.logger.Error("event lookup for admission",
			zap.Uint("ticket_id", ticket.ID),
			zap.Uint("event_id", ticket.EventID),
			zap.Error(err))
	} else if time.Now().After(event.StartsAt.Add(scanWindow)) {
		return s.reject(ticket, scannerID, domain.ScanExpired, "event over", "Event has ended")
	}

	admitted, err := s.tickets.AdmitIfUnused(ticketID)
	if err != nil {
		return nil, err
	}
	if !admitted {
		// someone else flipped it first (or it was already terminal)
		current, err := s.tickets.GetByID(ticketID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.TicketAdmitted {
			return s.reject(current, scannerID, domain.ScanDuplicate, "already admitted", "Ticket already admitted")
		}
		return s.reject(current, scannerID, domain.ScanInvalid, "state "+current.Status, "Ticket is not admissible")
	}

	ticket, err = s.tickets.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.logScan(ticket, scannerID, domain.ScanAdmitted, ""); err != nil {
		return nil, err
	}
	s.logger.Info("ticket admitted",
		zap.Uint("ticket_id", ticketID),
		zap.Uint("scanner_id", scannerID))
	return &AdmitResult{Admitted: true, Ticket: ticket, Warnings: []string{}}, nil
}

func (s *AdmissionService) reject(ticket *models.Ticket, scannerID uint, result, note, warning string) (*AdmitResult, error) {
	if err := s.logScan(ticket, scannerID, result, note); err != nil {
		return nil, err
	}
	return &AdmitResult{Admitted: false, Ticket: ticket, Warnings: []string{warning}}, nil
}

func (s *AdmissionService) logScan(ticket *models.Ticket, scannerID uint, result, note string) error {
	err := s.scanLogs.Create(&models.ScanLog{
		TicketID:  ticket.ID,
		ScannerID: scannerID,
		Result:    result,
		Note:      note,
	})
	if err != nil {
		// a scan without its audit row is an integrity problem, not noise
		s.logger.Error("scan log append failed",
			zap.Uint("ticket_id", ticket.ID),
			zap.String("result", result),
			zap.Error(err))
		return err
	}
	monitoring.Admission(result)
	if s.scanHub != nil {
		s.scanHub.BroadcastScan(ticket.ID, ticket.EventID, scannerID, result)
	}
	return nil
}
