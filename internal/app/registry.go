package app

import (
	"database/sql"
	"net/http"
	"os"
	"path/filepath"

	"leavehub/internal/assistant"
	"leavehub/internal/auth"
	"leavehub/internal/effect"
	"leavehub/internal/employee"
	"leavehub/internal/leave"
	"leavehub/internal/rbac"
	"leavehub/internal/rbac/infra"
	"leavehub/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	balanceRepo := employee.NewBalanceRepository(db)
	leaveRepo := leave.NewRepository(db)
	effectRepo := effect.NewRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer)
	if err != nil {
		return err
	}

	// --- Domain policy ---
	resolver := leave.NewConflictResolver(envFloat("TEAM_ABSENCE_THRESHOLD", 0.3))
	policy := leave.PolicyByName(
		os.Getenv("APPROVAL_POLICY"),
		decimal.NewFromFloat(envFloat("AUTO_APPROVE_MAX_DAYS", 2)),
	)
	grounding := assistant.NewInvalidator(rdb, logger)

	// --- Services ---
	authService := auth.NewService(employeeRepo, logger)
	employeeService := employee.NewService(employeeRepo, balanceRepo, counterRepo, logger)
	leaveService := leave.NewService(
		db,
		leaveRepo,
		effectRepo,
		balanceRepo,
		employeeRepo,
		counterRepo,
		resolver,
		policy,
		grounding,
		logger,
	)
	assistantService := assistant.NewService(leaveRepo, employeeRepo, balanceRepo, rdb, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandler(leaveService, rdb, logger)
	assistantHandler := assistant.NewHandler(assistantService, logger)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		employee.RegisterRoutes(api, employeeHandler, rbacService, logger)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb, logger)
		assistant.RegisterRoutes(api, assistantHandler, rbacService, logger)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return nil
}
