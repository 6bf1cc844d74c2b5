package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/voltbill/backend/internal/application/billing"
	"github.com/voltbill/backend/internal/domain/tariff"
	"github.com/voltbill/backend/internal/infrastructure/advisor"
	"github.com/voltbill/backend/internal/infrastructure/cache"
	"github.com/voltbill/backend/internal/infrastructure/config"
	"github.com/voltbill/backend/internal/infrastructure/logger"
	"github.com/voltbill/backend/internal/infrastructure/messaging"
	"github.com/voltbill/backend/internal/infrastructure/payment"
	"github.com/voltbill/backend/internal/infrastructure/persistence"
	"github.com/voltbill/backend/internal/infrastructure/scheduler"
	"github.com/voltbill/backend/internal/interfaces/http/handler"
	"github.com/voltbill/backend/internal/interfaces/http/middleware"
	"github.com/voltbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting VoltBill Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Repositories
	billRepo := persistence.NewGormBillRepository(db.DB, cfg.Billing.FrozenMonthTime())
	unitRepo := persistence.NewGormUnitRepository(db.DB)
	readingRepo := persistence.NewGormReadingRepository(db.DB, log)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	paymentEventRepo := persistence.NewGormPaymentEventRepository(db.DB)

	// Pricing resolver backed by the pricing table
	resolver := tariff.NewResolver(persistence.NewGormPricingSource(db.DB))

	// Payment provider: Stripe when a key is configured, mock otherwise
	var provider payment.Provider
	if cfg.Stripe.APIKey != "" {
		stripeProvider, err := payment.NewStripeProvider(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize payment provider", zap.Error(err))
		}
		provider = stripeProvider
		log.Info("Stripe payment provider enabled", zap.String("currency", cfg.Stripe.Currency))
	} else {
		provider = payment.NewMockProvider()
		log.Warn("No payment provider key configured, using mock payment links")
	}

	// Notification sender: Discord webhook when configured, mock otherwise
	var sender messaging.Sender
	if cfg.Messaging.WebhookURL != "" {
		sender = messaging.NewDiscordSender(cfg.Messaging.WebhookURL, cfg.Messaging.Timeout, log)
		log.Info("Discord notification sender enabled")
	} else {
		sender = messaging.NewMockSender()
		log.Warn("No messaging webhook configured, notifications are logged only")
	}

	// Idempotency store for payment webhooks: Redis when enabled, else
	// in-process. The durable event table backs either one.
	var idempotencyStore cache.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Redis idempotency store enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Application services
	billingService := appbilling.NewService(appbilling.ServiceConfig{
		Bills:              billRepo,
		Units:              unitRepo,
		Readings:           readingRepo,
		Notifications:      notificationRepo,
		Resolver:           resolver,
		Payments:           provider,
		Sender:             sender,
		Advisor:            advisor.NewDisabled(),
		ReminderWindowDays: cfg.Billing.ReminderWindowDays,
		DueDays:            cfg.Billing.DueDays,
		Logger:             log,
	})
	webhookService := appbilling.NewPaymentWebhookService(appbilling.PaymentWebhookServiceConfig{
		Bills:       billRepo,
		Events:      paymentEventRepo,
		Idempotency: idempotencyStore,
		Logger:      log,
	})

	// Billing scheduler
	billingScheduler := scheduler.NewBillingScheduler(scheduler.BillingSchedulerConfig{
		TickInterval: cfg.Scheduler.TickInterval,
	}, billingService, log)
	if cfg.Scheduler.Enabled {
		if err := billingScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
		defer func() {
			if err := billingScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping billing scheduler", zap.Error(err))
			}
		}()
		log.Info("Billing scheduler started",
			zap.Duration("tick_interval", cfg.Scheduler.TickInterval))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	// Health check outside API versioning
	engine.GET("/health", healthHandler(db))

	router.NewRouter(engine).
		Register(handler.NewBillHandler(billingService, billRepo, log)).
		Register(handler.NewReadingHandler(readingRepo, advisor.NewDisabled(), log)).
		Register(handler.NewWebhookHandler(webhookService, cfg.Stripe.WebhookSecret, log)).
		Register(handler.NewSchedulerHandler(billingScheduler)).
		Register(handler.NewTariffHandler()).
		Register(handler.NewSystemHandler()).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness of the process and its database
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
