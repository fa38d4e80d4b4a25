package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leavehub/internal/assistant"
	"leavehub/internal/calendar"
	"leavehub/internal/effect"
	"leavehub/internal/employee"
	"leavehub/internal/leave"
	"leavehub/internal/notify"
	"leavehub/internal/shared/connection"
	"leavehub/internal/sheets"

	"go.uber.org/zap"
)

// RunWorker menjalankan executor side effect plus sweeper redrive. Proses ini
// satu-satunya yang bicara ke provider kalender dan spreadsheet.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

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
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	effectRepo := effect.NewRepository(sqlDB)
	leaveRepo := leave.NewRepository(sqlDB)
	employeeRepo := employee.NewRepository(gormDB)

	calendarAdapter := calendar.NewHTTPAdapter(calendar.HTTPConfig{
		BaseURL:    os.Getenv("CALENDAR_API_URL"),
		CalendarID: os.Getenv("CALENDAR_ID"),
		APIToken:   os.Getenv("CALENDAR_API_TOKEN"),
	}, logger)
	sheetMirror := sheets.NewHTTPMirror(sheets.HTTPConfig{
		BaseURL:       os.Getenv("SHEETS_API_URL"),
		SpreadsheetID: os.Getenv("SPREADSHEET_ID"),
		SheetName:     os.Getenv("SHEET_NAME"),
		APIToken:      os.Getenv("SHEETS_API_TOKEN"),
	}, logger)
	dispatcher := notify.NewKafkaDispatcher(kafkaWriter, os.Getenv("KAFKA_NOTIFICATIONS_TOPIC"), logger)
	grounding := assistant.NewInvalidator(rdb, logger)

	handler := leave.NewSyncHandler(calendarAdapter, sheetMirror, dispatcher, effectRepo, logger)
	finalizer := leave.NewSyncFinalizer(sqlDB, leaveRepo, effectRepo, employeeRepo, dispatcher, grounding, logger)

	opts := effect.ExecutorOptions{
		PollInterval: envDuration("EFFECT_POLL_INTERVAL", 5*time.Second),
		BatchSize:    envInt("EFFECT_BATCH_SIZE", 50),
		MaxAttempts:  envInt("EFFECT_MAX_ATTEMPTS", 5),
		BackoffBase:  envDuration("EFFECT_BACKOFF_BASE", 30*time.Second),
		RedriveAfter: envDuration("EFFECT_REDRIVE_AFTER", 30*time.Minute),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go effect.RunExecutor(ctx, effectRepo, handler, finalizer, logger, opts)
	go effect.RunRedriveSweeper(ctx, effectRepo, logger, opts)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
