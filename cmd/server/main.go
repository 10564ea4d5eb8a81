package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/acwadtec/cashapp-backend/internal/config"
	"github.com/acwadtec/cashapp-backend/internal/handler"
	"github.com/acwadtec/cashapp-backend/internal/logging"
	"github.com/acwadtec/cashapp-backend/internal/middleware"
	"github.com/acwadtec/cashapp-backend/internal/repository"
	"github.com/acwadtec/cashapp-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.Server.Environment == "production"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logging.Sync()

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		logging.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	// Create services
	referralSvc := service.NewReferralService(repo, cfg.Rewards.MaxReferralDepth)
	offerSvc := service.NewOfferService(repo)
	accrualSvc := service.NewAccrualService(repo, referralSvc)
	certificateSvc := service.NewCertificateService(repo, referralSvc)
	userSvc := service.NewUserService(repo, referralSvc)
	balanceSvc := service.NewBalanceService(repo)

	// Create handlers
	h := handler.New(cfg, userSvc, offerSvc, accrualSvc, referralSvc, certificateSvc, balanceSvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Api-Key, X-Admin-Key, X-User-ID",
	}))

	// Health check
	app.Get("/health", h.Health)
	app.Get("/internal/health", h.Health)

	// API routes behind the gateway
	api := app.Group("/api", middleware.GatewayAuth(cfg))

	// User
	api.Post("/user/register", h.Register)
	api.Get("/user/me", h.GetMe)

	// Offers
	api.Get("/offers", h.GetOffers)
	api.Post("/offers/join", h.JoinOffer)
	api.Get("/offers/joins", h.GetOfferJoins)
	api.Get("/offers/joins/:join_id/status", h.GetOfferJoinStatus)
	api.Post("/offers/joins/:join_id/withdraw", h.WithdrawOfferJoin)

	// Certificates
	api.Get("/certificates", h.GetCertificates)
	api.Post("/certificates/join", h.JoinCertificate)
	api.Get("/certificates/joins", h.GetCertificateJoins)
	api.Post("/certificates/joins/:join_id/withdraw", h.WithdrawCertificateJoin)

	// Referrals
	api.Get("/referral/stats", h.GetReferralStats)
	api.Get("/referral/users", h.GetReferralEdges)
	api.Post("/referral/apply", h.ApplyReferralCode)

	// Balance
	api.Get("/balance", h.GetBalances)
	api.Get("/balance/transactions", h.GetTransactions)

	// Admin transitions (requires gateway auth + admin key)
	admin := app.Group("/api/admin", middleware.GatewayAuth(cfg), middleware.AdminAuth(cfg))
	admin.Post("/offers/joins/:join_id/approve", h.ApproveOfferJoin)
	admin.Post("/offers/joins/:join_id/reject", h.RejectOfferJoin)
	admin.Post("/certificates/joins/:join_id/approve", h.ApproveCertificateJoin)
	admin.Post("/certificates/joins/:join_id/reject", h.RejectCertificateJoin)

	// Internal endpoints (for external schedulers)
	internal := app.Group("/internal")
	internal.Post("/cron/accrue", func(c *fiber.Ctx) error {
		now := time.Now()
		offers, err := accrualSvc.RunSweep(c.Context(), now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		certificates, err := certificateSvc.RunSweep(c.Context(), now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":                "ok",
			"offers_credited":       offers,
			"certificates_credited": certificates,
		})
	})

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := service.NewAccrualWorker(accrualSvc, certificateSvc, cfg.Rewards.SweepInterval)
	go worker.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logging.L().Info("shutting down server")
		cancel()
		_ = app.Shutdown()
	}()

	// Start server
	logging.L().Info("server starting", zap.String("port", cfg.Server.Port))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logging.L().Fatal("failed to start server", zap.Error(err))
	}
}
