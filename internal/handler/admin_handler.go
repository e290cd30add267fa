package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"stagepass/internal/domain"
	"stagepass/internal/middleware"
	"stagepass/internal/models"
	"stagepass/internal/repository"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler is the back office: reconciliation, refunds, payouts, scanner
// accounts, and the ops dashboard.
type AdminHandler struct {
	stats       *service.StatsService
	issuance    *service.IssuanceService
	paymentSvc  *service.PaymentService
	withdrawals *service.WithdrawalService
	payments    *repository.PaymentRepository
	wallets     *repository.WalletRepository
	accounts    *repository.BankAccountRepository
	users       *repository.UserRepository
	scanLogs    *repository.ScanLogRepository
	wdRepo      *repository.WithdrawalRepository
	audits      *repository.AuditLogRepository
}

func NewAdminHandler(
	stats *service.StatsService,
	issuance *service.IssuanceService,
	paymentSvc *service.PaymentService,
	withdrawals *service.WithdrawalService,
	payments *repository.PaymentRepository,
	wallets *repository.WalletRepository,
	accounts *repository.BankAccountRepository,
	users *repository.UserRepository,
	scanLogs *repository.ScanLogRepository,
	wdRepo *repository.WithdrawalRepository,
	audits *repository.AuditLogRepository,
) *AdminHandler {
	return &AdminHandler{
		stats:       stats,
		issuance:    issuance,
		paymentSvc:  paymentSvc,
		withdrawals: withdrawals,
		payments:    payments,
		wallets:     wallets,
		accounts:    accounts,
		users:       users,
		scanLogs:    scanLogs,
		wdRepo:      wdRepo,
		audits:      audits,
	}
}

// audit records an admin action on the shared trail. Best effort: the action
// itself is already committed.
func (h *AdminHandler) audit(c *gin.Context, action, resource string, id uint) {
	actorID := middleware.GetUserID(c)
	_ = h.audits.Create(&models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: strconv.FormatUint(uint64(id), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "computing stats failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListFailedDeliveries is the reconciliation queue: payments whose money was
// taken but whose ticket, coins, or membership never materialized.
func (h *AdminHandler) ListFailedDeliveries(c *gin.Context) {
	payments, err := h.payments.ListFailedIssuance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed deliveries failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// RedeliverPayment re-runs the downstream effect of a settled payment,
// typically after capacity was raised. The raw QR token from a successful
// ticket redelivery is returned once here.
func (h *AdminHandler) RedeliverPayment(c *gin.Context) {
	paymentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	res, err := h.paymentSvc.Redeliver(paymentID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "payment_redeliver", "payment", paymentID)
	body := gin.H{"payment": res.Payment}
	if res.Issue != nil {
		body["ticket"] = res.Issue.Ticket
		body["token"] = res.Issue.RawToken
		body["replayed"] = res.Issue.Replayed
	}
	c.JSON(http.StatusOK, body)
}

type RefundTicketRequest struct {
	// RefundCoins, when positive, credits the buyer's wallet as compensation.
	RefundCoins int64 `json:"refund_coins"`
}

// RefundTicket invalidates the ticket, frees its capacity slot, and
// optionally credits the buyer. The credit reference is derived from the
// ticket id, so repeating the call cannot pay twice.
func (h *AdminHandler) RefundTicket(c *gin.Context) {
	ticketID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	var req RefundTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ticket, err := h.issuance.Refund(ticketID)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.RefundCoins > 0 {
		ref := fmt.Sprintf("refund-ticket-%d", ticketID)
		if err := h.wallets.Credit(ticket.UserID, req.RefundCoins, domain.TxRefund, "ticket refund", &ref); err != nil {
			respondError(c, err)
			return
		}
	}
	h.audit(c, "ticket_refund", "ticket", ticketID)
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// TicketScanLogs returns the full scan history of one ticket in order.
func (h *AdminHandler) TicketScanLogs(c *gin.Context) {
	ticketID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}
	logs, err := h.scanLogs.ListByTicket(ticketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing scan logs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan_logs": logs})
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := c.DefaultQuery("status", domain.WithdrawalPending)
	ws, err := h.wdRepo.ListByStatus(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing withdrawals failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": ws})
}

func (h *AdminHandler) MarkWithdrawalProcessing(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}
	w, err := h.withdrawals.MarkProcessing(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *AdminHandler) MarkWithdrawalPaid(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}
	w, err := h.withdrawals.MarkPaid(id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "withdrawal_paid", "withdrawal", id)
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}
	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawals.Reject(id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "withdrawal_rejected", "withdrawal", id)
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

// VerifyBankAccount confirms a payout destination after manual review.
func (h *AdminHandler) VerifyBankAccount(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bank account id"})
		return
	}
	if err := h.accounts.SetVerified(id, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verifying bank account failed"})
		return
	}
	h.audit(c, "bank_account_verified", "bank_account", id)
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

type CreateScannerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateScanner provisions a venue check-in account. Scanners cannot
// self-register; only admins mint this role.
func (h *AdminHandler) CreateScanner(c *gin.Context) {
	var req CreateScannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hashing password failed"})
		return
	}
	u := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         domain.RoleScanner,
	}
	if err := h.users.Create(u); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email or username already in use"})
		return
	}
	h.audit(c, "scanner_created", "user", u.ID)
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type WalletAdjustmentRequest struct {
	UserID    uint   `json:"user_id" binding:"required"`
	Coins     int64  `json:"coins" binding:"required,min=1"`
	Reason    string `json:"reason" binding:"required"`
	Reference string `json:"reference" binding:"required"`
}

// CreditWallet applies a manual bonus or adjustment. The caller-supplied
// reference makes the grant idempotent across retried requests.
func (h *AdminHandler) CreditWallet(c *gin.Context) {
	var req WalletAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref := "adjust-" + req.Reference
	if err := h.wallets.Credit(req.UserID, req.Coins, domain.TxBonus, req.Reason, &ref); err != nil {
		respondError(c, err)
		return
	}
	w, err := h.wallets.GetOrCreate(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading wallet failed"})
		return
	}
	h.audit(c, "wallet_credit", "user", req.UserID)
	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return uint(id), err
}
