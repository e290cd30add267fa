package router

import (
	"time"

	"stagepass/config"
	"stagepass/internal/cache"
	"stagepass/internal/handler"
	"stagepass/internal/middleware"
	"stagepass/internal/qrtoken"
	"stagepass/internal/repository"
	"stagepass/internal/service"
	"stagepass/internal/ws"
	"stagepass/pkg/paystack"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup wires repositories, services, and handlers onto a gin engine.
// redisClient may be nil; the stats cache degrades to recomputing on every
// request.
func Setup(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	scanLogRepo := repository.NewScanLogRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	bankAccountRepo := repository.NewBankAccountRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	qrSvc := qrtoken.New(cfg.QRToken.Secret)
	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.WebhookSecret, cfg.Paystack.VerifyTimeout)
	scanHub := ws.NewScanHub()
	statsCache := cache.NewStatsCache(redisClient, cfg.Redis.StatsTTL)

	authSvc := service.NewAuthService(cfg, userRepo)
	issuanceSvc := service.NewIssuanceService(db, eventRepo, ticketRepo, paymentRepo, qrSvc, logger)
	paymentSvc := service.NewPaymentService(paymentRepo, walletRepo, membershipRepo, issuanceSvc, gateway, cfg, logger)
	admissionSvc := service.NewAdmissionService(ticketRepo, eventRepo, scanLogRepo, qrSvc, scanHub, logger)
	withdrawalSvc, err := service.NewWithdrawalService(db, withdrawalRepo, walletRepo, bankAccountRepo, &cfg.Wallet, logger)
	if err != nil {
		return nil, err
	}
	statsSvc := service.NewStatsService(db, statsCache, logger)

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, eventRepo, paymentRepo)
	webhookHandler := handler.NewWebhookHandler(paymentSvc, gateway, auditRepo, logger)
	ticketHandler := handler.NewTicketHandler(ticketRepo)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc)
	walletHandler := handler.NewWalletHandler(walletRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, withdrawalRepo)
	bankAccountHandler := handler.NewBankAccountHandler(bankAccountRepo)
	adminHandler := handler.NewAdminHandler(statsSvc, issuanceSvc, paymentSvc, withdrawalSvc, paymentRepo, walletRepo, bankAccountRepo, userRepo, scanLogRepo, withdrawalRepo, auditRepo)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/scans", ws.UpgradeScanWS(&cfg.JWT, scanHub))

	authLimiter := middleware.NewInMemoryRateLimiter(10, time.Minute)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(authLimiter))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		v1.GET("/events", eventHandler.List)
		v1.GET("/events/:id", eventHandler.Get)

		// gateway-facing; authenticated by signature, not JWT
		v1.POST("/webhooks/paystack", webhookHandler.Handle)

		authed := v1.Group("")
		authed.Use(middleware.AuthRequired(&cfg.JWT))
		{
			authed.POST("/payments/initiate", paymentHandler.Initiate)
			authed.GET("/payments/verify/:reference", paymentHandler.Verify)
			authed.GET("/payments", paymentHandler.ListMine)

			authed.GET("/tickets", ticketHandler.ListMine)

			authed.GET("/wallet", walletHandler.GetBalance)
			authed.GET("/wallet/transactions", walletHandler.ListTransactions)

			authed.POST("/withdrawals", withdrawalHandler.Create)
			authed.GET("/withdrawals", withdrawalHandler.ListMine)

			authed.POST("/bank-accounts", bankAccountHandler.Create)
			authed.GET("/bank-accounts", bankAccountHandler.ListMine)

			scanner := authed.Group("/scan")
			scanner.Use(middleware.ScannerRequired())
			{
				scanner.POST("/admit", admissionHandler.Admit)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.AdminRequired())
			{
				admin.GET("/stats", adminHandler.Dashboard)

				admin.POST("/events", eventHandler.Create)
				admin.PATCH("/events/:id/capacity", eventHandler.UpdateCapacity)

				admin.GET("/payments/failed", adminHandler.ListFailedDeliveries)
				admin.POST("/payments/:id/redeliver", adminHandler.RedeliverPayment)

				admin.POST("/tickets/:id/refund", adminHandler.RefundTicket)
				admin.GET("/tickets/:id/scans", adminHandler.TicketScanLogs)

				admin.GET("/withdrawals", adminHandler.ListWithdrawals)
				admin.POST("/withdrawals/:id/processing", adminHandler.MarkWithdrawalProcessing)
				admin.POST("/withdrawals/:id/paid", adminHandler.MarkWithdrawalPaid)
				admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

				admin.POST("/bank-accounts/:id/verify", adminHandler.VerifyBankAccount)
				admin.POST("/scanners", adminHandler.CreateScanner)
				admin.POST("/wallets/credit", adminHandler.CreditWallet)
			}
		}
	}

	return r, nil
}
