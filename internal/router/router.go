package router

import (
	"time"

	"salonledger/internal/config"
	"salonledger/internal/handler"
	"salonledger/internal/infra"
	"salonledger/internal/middleware"
	"salonledger/internal/repository"
	"salonledger/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb and alerts may be nil: projections are then computed uncached and
// closing discrepancies are only logged.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, alerts service.AlertDispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		cache   service.ProjectionCache
		cacheCB *infra.CircuitBreaker
	)
	if rdb != nil {
		cacheCB = infra.NewCircuitBreaker(infra.DefaultCBConfig("projection-cache"))
		cache = infra.NewProjectionCache(rdb, cacheCB, time.Duration(cfg.ProjectionCacheTTLSeconds)*time.Second)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	ledgerRepo := repository.NewLedgerRepository(db)
	registerRepo := repository.NewCashRegisterRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	receivableRepo := repository.NewReceivableRepository(db)
	payableRepo := repository.NewPayableRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledgerSvc := service.NewLedgerService(ledgerRepo)
	registerSvc := service.NewCashRegisterService(registerRepo, ledgerRepo, operatorRepo, ledgerSvc, alerts)
	receivableSvc := service.NewReceivableService(receivableRepo, ledgerSvc)
	payableSvc := service.NewPayableService(payableRepo, ledgerSvc)
	projectionSvc := service.NewProjectionService(ledgerSvc, receivableRepo, payableRepo, cache, service.ProjectionConfig{
		MinimumRequired: cfg.MinimumRequiredBalance,
		MaxDays:         cfg.ProjectionMaxDays,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	ledgerH := handler.NewLedgerHandler(ledgerSvc)
	registerH := handler.NewRegisterHandler(registerSvc)
	receivableH := handler.NewReceivableHandler(receivableSvc, payableSvc)
	cashflowH := handler.NewCashflowHandler(projectionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, cacheCB))

	anyone := middleware.RequireRole(middleware.RoleOperator, middleware.RoleManager, middleware.RoleAdmin)
	managers := middleware.RequireRole(middleware.RoleManager, middleware.RoleAdmin)
	admins := middleware.RequireRole(middleware.RoleAdmin)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/accounts", anyone, ledgerH.ListAccounts)
		v1.GET("/accounts/:id", anyone, ledgerH.GetAccount)
		v1.GET("/accounts/:id/balance", anyone, ledgerH.Balance)
		v1.GET("/accounts/:id/movements", managers, ledgerH.ListMovements)
		v1.POST("/accounts", managers, ledgerH.CreateAccount)
		v1.PATCH("/accounts/:id/initial-balance", admins, ledgerH.UpdateInitialBalance)
		v1.DELETE("/accounts/:id", admins, ledgerH.DeactivateAccount)

		v1.POST("/movements", anyone, ledgerH.AppendMovement)
		v1.POST("/movements/:id/reverse", managers, ledgerH.ReverseMovement)
		v1.POST("/transfers", managers, ledgerH.Transfer)

		regs := v1.Group("/registers", anyone)
		{
			regs.POST("/open", registerH.Open)
			regs.POST("/:id/adjustments", registerH.RecordAdjustment)
			regs.POST("/:id/close", registerH.Close)
			regs.GET("/current", registerH.Current)
			regs.GET("/:id/report", registerH.Report)
		}
		v1.GET("/registers/history", managers, registerH.History)

		v1.POST("/sales/:sale_id/installments", anyone, receivableH.CreateInstallments)
		v1.GET("/sales/:sale_id/installments", anyone, receivableH.ListBySale)
		v1.POST("/installments/:id/receipt", anyone, receivableH.RegisterReceipt)
		v1.GET("/installments/pending", managers, receivableH.ListPending)

		fin := v1.Group("", managers)
		{
			fin.POST("/payables", receivableH.CreatePayable)
			fin.GET("/payables/pending", receivableH.ListPendingPayables)
			fin.POST("/payables/:id/pay", receivableH.PayPayable)
			fin.POST("/recurring-expenses", receivableH.CreateRecurring)
			fin.GET("/recurring-expenses", receivableH.ListRecurring)
			fin.DELETE("/recurring-expenses/:id", receivableH.DeactivateRecurring)
			fin.GET("/cashflow/projection", cashflowH.Projection)
		}
	}

	// Swagger UI outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
