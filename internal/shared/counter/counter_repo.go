package counter

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	TypeEmployeeNumber = "employee_number"
	TypeRequestNumber  = "leave_request_number"
)

type Counter struct {
	CounterType string `gorm:"type:varchar(40);primaryKey"`
	LastValue   int64  `gorm:"type:bigint;not null"`
	UpdatedAt   time.Time
}

func (Counter) TableName() string {
	return "counters"
}

type Repository interface {
	GetNextValue(ctx context.Context, counterType string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	var nextValue int64

	// Use raw SQL for atomic UPSERT and increment to handle race conditions per type
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO counters (counter_type, last_value, updated_at)
		VALUES (?, 1, now())
		ON CONFLICT (counter_type) DO UPDATE
		SET last_value = counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, counterType).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
