package handler

import (
	"net/http"

	"stagepass/internal/middleware"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
)

type AdmissionHandler struct {
	svc *service.AdmissionService
}

func NewAdmissionHandler(svc *service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{svc: svc}
}

type AdmitRequest struct {
	TicketID uint   `json:"ticket_id" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

// Admit consumes a scanned QR token. Rejections are 200s with admitted=false
// and a human warning; the scanner app renders them, it does not retry them.
func (h *AdmissionHandler) Admit(c *gin.Context) {
	scannerID := middleware.GetUserID(c)
	var req AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.Admit(req.TicketID, scannerID, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
