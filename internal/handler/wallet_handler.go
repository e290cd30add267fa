package handler

import (
	"net/http"
	"strconv"

	"stagepass/internal/middleware"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	wallets *repository.WalletRepository
}

func NewWalletHandler(wallets *repository.WalletRepository) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.wallets.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading wallet failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	txs, err := h.wallets.ListTransactions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing transactions failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
