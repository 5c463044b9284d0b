package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/xby-111/bill/internal/config"
	"github.com/xby-111/bill/internal/handler"
	"github.com/xby-111/bill/internal/middleware"
	"github.com/xby-111/bill/internal/service"
	"github.com/xby-111/bill/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

// SetupRouter builds the Gin engine for the configured profile. A nil revoker
// falls back to the revoked_tokens table.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *slog.Logger, revoker session.Revoker) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	r.GET("/health", handler.Health(db, log))

	if cfg.Server.Profile == config.ProfileMinimal {
		setupMinimal(r, cfg, db, log)
		return r
	}

	if revoker == nil {
		revoker = session.NewDBRevoker(db)
	}
	setupFull(r, cfg, db, log, revoker)
	return r
}

// setupMinimal 无鉴权的家庭记账本
func setupMinimal(r *gin.Engine, cfg *config.Config, db *gorm.DB, log *slog.Logger) {
	expenseHandler := handler.NewExpenseHandler(
		service.NewExpenseService(db, cfg.App.PageSize, cfg.App.ExportLimit), log)

	api := r.Group("/api")
	api.GET("/expenses", expenseHandler.ListExpenses)
	api.POST("/expenses", expenseHandler.CreateExpense)
}

func setupFull(r *gin.Engine, cfg *config.Config, db *gorm.DB, log *slog.Logger, revoker session.Revoker) {
	authService := service.NewAuthService(db, service.AuthOptions{
		Secret:           cfg.JWT.Secret,
		Issuer:           cfg.JWT.Issuer,
		TokenTTL:         cfg.TokenTTL(),
		BcryptCost:       cfg.Security.BcryptCost,
		MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
		LockDuration:     cfg.LockDuration(),
	}, revoker)
	billService := service.NewBillService(db, cfg.App.PageSize, cfg.App.ExportLimit)

	authHandler := handler.NewAuthHandler(authService, log)
	billHandler := handler.NewBillHandler(billService, service.NewStatisticsService(db), log)
	exportHandler := handler.NewExportHandler(service.NewExportService(billService), log)
	requireAuth := middleware.AuthMiddleware(authService, log)

	r.GET("/", handler.Root)

	// 登录/注册接口（不需要鉴权）
	auth := r.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", requireAuth, handler.GetMe)
	auth.POST("/logout", requireAuth, authHandler.Logout)
	auth.POST("/password", requireAuth, authHandler.ChangePassword)

	// 需要登录才能访问的接口
	bills := r.Group("/bills", requireAuth)
	for _, root := range []string{"", "/"} {
		bills.POST(root, billHandler.CreateBill)
		bills.GET(root, billHandler.ListBills)
	}
	bills.GET("/export", exportHandler.ExportCSV)
	bills.GET("/export/xlsx", exportHandler.ExportXLSX)
	bills.GET("/statistics/monthly", billHandler.MonthlyStats)
	bills.GET("/statistics/category", billHandler.CategoryStats)
	bills.GET("/statistics/worker", billHandler.WorkerStats)
	bills.GET("/:id", billHandler.GetBill)
	bills.PUT("/:id", billHandler.UpdateBill)
	bills.DELETE("/:id", billHandler.DeleteBill)
}

// WithCORS wraps h so browsers from origins may call it. "*" allows any origin.
func WithCORS(h http.Handler, origins []string) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:         300,
	})(h)
}
