package handler

import (
	"net/http"

	"stagepass/internal/middleware"
	"stagepass/internal/models"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
)

type BankAccountHandler struct {
	accounts *repository.BankAccountRepository
}

func NewBankAccountHandler(accounts *repository.BankAccountRepository) *BankAccountHandler {
	return &BankAccountHandler{accounts: accounts}
}

type CreateBankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	BankCode      string `json:"bank_code" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required,min=10,max=10"`
	AccountName   string `json:"account_name" binding:"required"`
}

// Create registers a payout destination. Accounts start unverified; an admin
// confirms ownership before any withdrawal can use them.
func (h *BankAccountHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account := &models.BankAccount{
		UserID:        userID,
		BankName:      req.BankName,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	}
	if err := h.accounts.Create(account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "saving bank account failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bank_account": account})
}

func (h *BankAccountHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	accounts, err := h.accounts.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing bank accounts failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank_accounts": accounts})
}
