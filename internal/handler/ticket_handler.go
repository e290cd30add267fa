package handler

import (
	"net/http"

	"stagepass/internal/middleware"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	tickets *repository.TicketRepository
}

func NewTicketHandler(tickets *repository.TicketRepository) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// ListMine returns the caller's tickets with their events preloaded. Token
// hashes are never serialized, so there is nothing sensitive here.
func (h *TicketHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	tickets, err := h.tickets.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing tickets failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}
