package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_verified_total",
			Help: "Payment verification outcomes by ingress path",
		},
		[]string{"path", "outcome"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Ticket issuance attempts by result",
		},
		[]string{"result"},
	)

	admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_total",
			Help: "Admission scan attempts by result",
		},
		[]string{"result"},
	)

	withdrawals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_total",
			Help: "Withdrawal request outcomes",
		},
		[]string{"outcome"},
	)

	webhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Inbound gateway webhook deliveries by result",
		},
		[]string{"result"},
	)
)

func PaymentVerified(path, outcome string) { paymentsVerified.WithLabelValues(path, outcome).Inc() }
func TicketIssued(result string)           { ticketsIssued.WithLabelValues(result).Inc() }
func Admission(result string)              { admissions.WithLabelValues(result).Inc() }
func Withdrawal(outcome string)            { withdrawals.WithLabelValues(outcome).Inc() }
func WebhookRequest(result string)         { webhookRequests.WithLabelValues(result).Inc() }
