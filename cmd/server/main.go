package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/infrastructure/auth"
	"github.com/nhatro/backend/internal/infrastructure/cache"
	"github.com/nhatro/backend/internal/infrastructure/config"
	"github.com/nhatro/backend/internal/infrastructure/event"
	"github.com/nhatro/backend/internal/infrastructure/export"
	"github.com/nhatro/backend/internal/infrastructure/lock"
	"github.com/nhatro/backend/internal/infrastructure/logger"
	"github.com/nhatro/backend/internal/infrastructure/persistence"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
	"github.com/nhatro/backend/internal/interfaces/http/handler"
	"github.com/nhatro/backend/internal/interfaces/http/middleware"
	"github.com/nhatro/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting nhatro backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with GORM logging routed through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	contractRepo := persistence.NewGormContractRepository(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	readingRepo := persistence.NewGormReadingRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	roomDirectory := persistence.NewGormRoomDirectory(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Shared infrastructure
	locks := lock.NewKeyedMutex()
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)
	idempotencyCfg := shared.IdempotencyConfig{TTL: cfg.Billing.IdempotencyTTL, Enabled: true}

	billingCfg := appbilling.Config{
		DueDayOffset:         cfg.Billing.DueDayOffset,
		DefaultMaxMeterValue: cfg.Billing.DefaultMaxMeterValue,
		MandatoryServices:    cfg.Billing.MandatoryServices,
	}

	// Application services
	readingService := appbilling.NewReadingService(readingRepo, contractRepo, serviceRepo, billingCfg, log)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, contractRepo, serviceRepo, readingRepo, roomDirectory, locks, eventBus, billingCfg, log)
	paymentService := appbilling.NewPaymentService(txScope, invoiceRepo, idempotencyStore, idempotencyCfg, locks, eventBus, log)
	reconciliationService := appbilling.NewReconciliationService(invoiceRepo, txScope, eventBus, log)
	ledgerService := appbilling.NewLedgerService(transactionRepo, invoiceRepo)

	// Billing events are mirrored into the structured log
	eventBus.Subscribe(appbilling.NewBillingAuditHandler(log))

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	authorizer := auth.NewClaimsAuthorizer()

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	dto.RegisterCustomValidators()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes behind JWT authentication
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	pdfGenerator := export.NewInvoicePDFGenerator()
	reportGenerator := export.NewMonthlyReportGenerator()

	r.Register(handler.NewReadingHandler(readingService, authorizer))
	r.Register(handler.NewInvoiceHandler(invoiceService, authorizer, pdfGenerator, reportGenerator))
	r.Register(handler.NewPaymentHandler(paymentService, ledgerService, authorizer))
	r.Register(handler.NewReconciliationHandler(reconciliationService, authorizer))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
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
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
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
