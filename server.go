package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/handlers"
	"bitbucket.org/mmdatafocus/mfi_backend/middlewares"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/login", handlers.Login)

	authed := api.Group("")
	authed.Use(middlewares.AuthMiddleware())

	authed.POST("/teller-sessions", handlers.AllocateTellerSession)
	authed.POST("/teller-sessions/:id/confirm", handlers.ConfirmTellerSession)
	authed.POST("/teller-sessions/:id/close", handlers.CloseTellerSession)
	authed.POST("/teller-sessions/:id/review", handlers.ReviewTellerSession)
	authed.GET("/teller-sessions/my-active", handlers.MyActiveTellerSession)
	authed.POST("/cash-entries", handlers.PostCashLedgerEntry)
	authed.POST("/cash-entries/:id/reverse", handlers.ReverseCashLedgerEntry)

	authed.POST("/loans", handlers.CreateLoan)
	authed.POST("/loans/drafts", handlers.CreateDraftLoan)
	authed.POST("/loans/:id/documents", handlers.AttachLoanDocument)
	authed.POST("/loans/:id/submit", handlers.SubmitLoan)
	authed.POST("/loans/:id/review", handlers.ReviewLoan)
	authed.POST("/loans/:id/disburse", handlers.DisburseLoan)
	authed.POST("/loans/:id/repayments", handlers.RecordRepayment)
	authed.GET("/loans/:id/schedule", handlers.GetLoanSchedule)

	authed.POST("/savings-accounts", handlers.CreateSavingsAccount)
	authed.POST("/savings-accounts/:id/deposits", handlers.DepositToAccount)
	authed.POST("/savings-accounts/:id/withdrawals", handlers.WithdrawFromAccount)
	authed.POST("/savings-accounts/:id/freeze", handlers.FreezeAccount)
	authed.POST("/savings-accounts/:id/unfreeze", handlers.UnfreezeAccount)
	authed.POST("/savings-accounts/:id/close", handlers.CloseAccount)
	authed.GET("/savings-accounts/:id/transactions", handlers.GetAccountTransactions)
	authed.POST("/savings-transactions/:id/approve", handlers.ApproveWithdrawal)
	authed.POST("/savings-transactions/:id/reject", handlers.RejectWithdrawal)
	authed.GET("/pending-withdrawals", handlers.ListPendingWithdrawals)

	authed.POST("/loan-products", handlers.CreateLoanProduct)
	authed.POST("/savings-products", handlers.CreateSavingsProduct)
	authed.PUT("/savings-products/:id", handlers.UpdateSavingsProduct)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.AutoMigrateAll(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Error("AutoMigrate failed: " + err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// READ COMMITTED keeps the advisory-lock + recompute pattern from tripping
	// over repeatable-read snapshots.
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<minInt(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
