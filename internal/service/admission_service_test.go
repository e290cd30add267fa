package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stagepass/internal/domain"
	"stagepass/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newAdmission(d *deps) *AdmissionService {
	return NewAdmissionService(d.tickets, d.events, d.scanLogs, d.qr, nil, zap.NewNop())
}

// issueTicket issues a real ticket and returns it with its raw token.
func issueTicket(t *testing.T, d *deps, eventID uint, ref string) (*models.Ticket, string) {
	t.Helper()
	fan := d.createUser(t, domain.RoleFan)
	p := d.createTicketPayment(t, fan.ID, eventID, ref)
	res, err := d.issuance.IssueForPayment(p)
	require.NoError(t, err)
	return res.Ticket, res.RawToken
}

func requireScanLogs(t *testing.T, d *deps, ticketID uint, results ...string) {
	t.Helper()
	logs, err := d.scanLogs.ListByTicket(ticketID)
	require.NoError(t, err)
	require.Len(t, logs, len(results))
	// ListByTicket is chronological
	for i, want := range results {
		assert.Equal(t, want, logs[i].Result)
	}
}

func TestAdmitHappyPath(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, token := issueTicket(t, d, event.ID, "SP-ADMIT1")

	res, err := svc.Admit(ticket.ID, scanner.ID, token)
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, domain.TicketAdmitted, res.Ticket.Status)
	assert.NotNil(t, res.Ticket.AdmittedAt)

	requireScanLogs(t, d, ticket.ID, domain.ScanAdmitted)
}

func TestAdmitDuplicate(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, token := issueTicket(t, d, event.ID, "SP-ADMIT2")

	first, err := svc.Admit(ticket.ID, scanner.ID, token)
	require.NoError(t, err)
	require.True(t, first.Admitted)

	second, err := svc.Admit(ticket.ID, scanner.ID, token)
	require.NoError(t, err)
	assert.False(t, second.Admitted)
	assert.Contains(t, second.Warnings, "Ticket already admitted")

	// both attempts are on the audit trail
	requireScanLogs(t, d, ticket.ID, domain.ScanAdmitted, domain.ScanDuplicate)
}

func TestAdmitConcurrentScannersAdmitOnce(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, token := issueTicket(t, d, event.ID, "SP-RACE1")

	// two gates scanning the same QR at once must admit exactly once
	const scans = 8
	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Admit(ticket.ID, scanner.ID, token)
			if err != nil {
				t.Errorf("admit: %v", err)
				return
			}
			if res.Admitted {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), admitted)

	// every attempt left its audit row
	logs, err := d.scanLogs.ListByTicket(ticket.ID)
	require.NoError(t, err)
	assert.Len(t, logs, scans)
	var admittedRows int
	for _, l := range logs {
		if l.Result == domain.ScanAdmitted {
			admittedRows++
		}
	}
	assert.Equal(t, 1, admittedRows)
}

func TestAdmitForgedToken(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, _ := issueTicket(t, d, event.ID, "SP-ADMIT3")

	res, err := svc.Admit(ticket.ID, scanner.ID, "DEADBEEF")
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	requireScanLogs(t, d, ticket.ID, domain.ScanInvalid)

	// a rejected token must not burn the ticket
	got, err := d.tickets.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketUnused, got.Status)
}

func TestAdmitRefundedTicket(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, token := issueTicket(t, d, event.ID, "SP-ADMIT4")

	_, err := d.issuance.Refund(ticket.ID)
	require.NoError(t, err)

	res, err := svc.Admit(ticket.ID, scanner.ID, token)
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Contains(t, res.Warnings, "Ticket was refunded")
	requireScanLogs(t, d, ticket.ID, domain.ScanInvalid)
}

func TestAdmitExpiredEvent(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, token := issueTicket(t, d, event.ID, "SP-ADMIT5")

	// push the event past the scan window
	event.StartsAt = time.Now().Add(-25 * time.Hour)
	require.NoError(t, d.events.Update(event))

	res, err := svc.Admit(ticket.ID, scanner.ID, token)
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	requireScanLogs(t, d, ticket.ID, domain.ScanExpired)
}

func TestAdmitMissingEventIsLogged(t *testing.T) {
	d := newDeps(t)
	core, observed := observer.New(zap.ErrorLevel)
	svc := NewAdmissionService(d.tickets, d.events, d.scanLogs, d.qr, nil, zap.New(core))
	scanner := d.createUser(t, domain.RoleScanner)
	event := d.createEvent(t, 5)
	ticket, token := issueTicket(t, d, event.ID, "SP-ADMIT6")

	require.NoError(t, d.db.Delete(&models.Event{}, event.ID).Error)

	res, err := svc.Admit(ticket.ID, scanner.ID, token)
	require.NoError(t, err)
	assert.True(t, res.Admitted, "the scan proceeds on the ticket's own state")
	assert.Equal(t, 1, observed.FilterMessage("event lookup for admission").Len())
}

func TestAdmitUnknownTicket(t *testing.T) {
	d := newDeps(t)
	svc := newAdmission(d)
	scanner := d.createUser(t, domain.RoleScanner)

	_, err := svc.Admit(99999, scanner.ID, "anything")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// no ticket, no scan log row to hang one on
	logs, listErr := d.scanLogs.ListByTicket(99999)
	require.NoError(t, listErr)
	assert.Empty(t, logs)
}
