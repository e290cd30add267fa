package handler

import (
	"errors"
	"net/http"

	"stagepass/internal/domain"
	"stagepass/internal/middleware"
	"stagepass/internal/models"
	"stagepass/internal/repository"
	"stagepass/internal/service"
	"stagepass/pkg/qr"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	svc      *service.PaymentService
	events   *repository.EventRepository
	payments *repository.PaymentRepository
}

func NewPaymentHandler(svc *service.PaymentService, events *repository.EventRepository, payments *repository.PaymentRepository) *PaymentHandler {
	return &PaymentHandler{svc: svc, events: events, payments: payments}
}

type InitiatePaymentRequest struct {
	Purpose string `json:"purpose" binding:"required,oneof=TICKET COINS MEMBERSHIP"`
	EventID uint   `json:"event_id"`
	Coins   int64  `json:"coins"`
	Tier    string `json:"tier"`
	// AmountKobo is required for COINS and MEMBERSHIP; TICKET uses the
	// event's price.
	AmountKobo int64 `json:"amount_kobo"`
}

// Initiate creates the PENDING payment the gateway charge will settle
// against. The reference returned here is what the client passes to the
// gateway checkout.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount := req.AmountKobo
	meta := models.PaymentMetadata{EventID: req.EventID, Coins: req.Coins, Tier: req.Tier}
	switch req.Purpose {
	case domain.PurposeTicket:
		if req.EventID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id required for ticket payments"})
			return
		}
		event, err := h.events.GetByID(req.EventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
				return
			}
			respondError(c, err)
			return
		}
		if event.Remaining() <= 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "event is sold out"})
			return
		}
		amount = event.PriceKobo
	case domain.PurposeCoins:
		if req.Coins <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "coins required for coin payments"})
			return
		}
	case domain.PurposeMembership:
		if req.Tier == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tier required for membership payments"})
			return
		}
	}

	p, err := h.svc.Initiate(userID, amount, req.Purpose, meta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

// Verify is the client-triggered fallback when webhook delivery lags. It is
// safe to call repeatedly: a settled payment just reports its outcome again.
func (h *PaymentHandler) Verify(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}
	res, err := h.svc.VerifyByReference(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponseBody(res))
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	payments, err := h.payments.ListByUser(userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing payments failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// verifyResponseBody shapes a settlement result for clients, including the
// one-time QR data URI when a ticket was just issued.
func verifyResponseBody(res *service.SettleResult) gin.H {
	body := gin.H{
		"outcome": res.Outcome,
		"payment": res.Payment,
	}
	if res.Outcome == service.OutcomeFailed || res.Outcome == service.OutcomeAmountMismatch {
		body["support_reference"] = res.Payment.Reference
		body["message"] = "payment failed, retry or contact support with this reference"
	}
	if res.Issue != nil {
		body["ticket"] = res.Issue.Ticket
		if res.Issue.RawToken != "" {
			if uri, err := qr.DataURI(res.Issue.RawToken); err == nil {
				body["qr_image"] = uri
			}
		}
	}
	return body
}
