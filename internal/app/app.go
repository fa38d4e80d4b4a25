package app

import (
	"os"

	"leavehub/internal/effect"
	"leavehub/internal/employee"
	"leavehub/internal/leave"
	"leavehub/internal/middleware"
	"leavehub/internal/shared/connection"
	"leavehub/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp menyambungkan infrastruktur lalu mendaftarkan seluruh modul API.
func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	if envBool("DB_AUTOMIGRATE") {
		if err := gormDB.AutoMigrate(
			&employee.Employee{},
			&employee.LeaveBalance{},
			&leave.LeaveRequest{},
			&effect.Record{},
			&counter.Counter{},
		); err != nil {
			return err
		}
		zap.L().Info("database schema migrated")
	}

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	router.Use(middleware.RequestID())

	return registerModules(router, sqlDB, gormDB, rdb)
}
