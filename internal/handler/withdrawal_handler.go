package handler

import (
	"errors"
	"net/http"

	"stagepass/internal/domain"
	"stagepass/internal/middleware"
	"stagepass/internal/repository"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	svc         *service.WithdrawalService
	withdrawals *repository.WithdrawalRepository
}

func NewWithdrawalHandler(svc *service.WithdrawalService, withdrawals *repository.WithdrawalRepository) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc, withdrawals: withdrawals}
}

type CreateWithdrawalRequest struct {
	BankAccountID uint  `json:"bank_account_id" binding:"required"`
	AmountCoins   int64 `json:"amount_coins" binding:"required,min=1"`
}

// Create requests a payout. Each precondition failure gets its own error
// string so the app can tell the user exactly what to fix.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.svc.Request(userID, req.BankAccountID, req.AmountCoins)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount below withdrawal minimum", "code": "BELOW_MINIMUM"})
		case errors.Is(err, domain.ErrUnverifiedAccount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "bank account not verified", "code": "UNVERIFIED_ACCOUNT"})
		case errors.Is(err, domain.ErrPendingExists):
			c.JSON(http.StatusConflict, gin.H{"error": "an open withdrawal already exists", "code": "PENDING_EXISTS"})
		case errors.Is(err, domain.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient wallet balance", "code": "INSUFFICIENT_BALANCE"})
		default:
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": w})
}

func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ws, err := h.withdrawals.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing withdrawals failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": ws})
}
