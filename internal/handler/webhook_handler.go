package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"stagepass/internal/domain"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/repository"
	"stagepass/internal/service"
	"stagepass/pkg/paystack"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives gateway push deliveries. The signature is checked
// over the raw body before anything in the payload is trusted; a bad
// signature touches no state.
type WebhookHandler struct {
	svc       *service.PaymentService
	gateway   *paystack.Client
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

func NewWebhookHandler(svc *service.PaymentService, gateway *paystack.Client, auditRepo *repository.AuditLogRepository, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, gateway: gateway, auditRepo: auditRepo, logger: logger}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		monitoring.WebhookRequest("bad_body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	signature := c.GetHeader("x-paystack-signature")
	if !h.gateway.VerifySignature(body, signature) {
		monitoring.WebhookRequest("bad_signature")
		h.logger.Warn("webhook signature rejected", zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event paystack.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		monitoring.WebhookRequest("bad_json")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.svc.HandleWebhookEvent(&event)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// not ours; acknowledge so the gateway stops retrying
			monitoring.WebhookRequest("unknown_reference")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		monitoring.WebhookRequest("error")
		h.logger.Error("webhook processing", zap.String("reference", event.Data.Reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	monitoring.WebhookRequest(res.Outcome)
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "webhook_" + res.Outcome,
		Resource:   "payment",
		ResourceID: event.Data.Reference,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": res.Outcome})
}
