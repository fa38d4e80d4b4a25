package effect

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending         = "pending"
	StatusSucceeded       = "succeeded"
	StatusFailedRetryable = "failed_retryable"
	StatusFailedPermanent = "failed_permanent"
)

const (
	KindCalendarCreate = "calendar_create"
	KindCalendarDelete = "calendar_delete"
	KindNotifyEmployee = "notify_employee"
	KindNotifyApprover = "notify_approver"
	KindSheetUpsert    = "sheet_upsert"
)

// Record adalah jurnal durable satu side effect. Payload dibuat
// self-contained saat scheduling supaya eksekusi tidak perlu membaca
// ulang tabel domain.
type Record struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	RequestID      string    `gorm:"type:uuid;not null;index:idx_side_effects_request"`
	Kind           string    `gorm:"type:varchar(30);not null"`
	IdempotencyKey string    `gorm:"type:varchar(120);not null;uniqueIndex:uq_side_effects_idem_key"`
	Payload        []byte    `gorm:"type:jsonb;not null"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending';index:idx_side_effects_status"`
	Attempts       int       `gorm:"type:int;not null;default:0"`
	LastError      string    `gorm:"type:varchar(500)"`
	Result         string    `gorm:"type:varchar(255)"`
	NextAttemptAt  time.Time `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Record) TableName() string {
	return "side_effect_records"
}

// KeyFor menurunkan idempotency key deterministik: retry memakai key yang
// sama, versi transisi berbeda menghasilkan key berbeda.
func KeyFor(requestID string, version int64, kind string) string {
	return fmt.Sprintf("%s:v%d:%s", requestID, version, kind)
}

// NewRecord membangun record pending untuk transisi pada versi tertentu.
func NewRecord(requestID string, version int64, kind string, payload []byte) Record {
	now := time.Now().UTC()
	return Record{
		ID:             uuid.New().String(),
		RequestID:      requestID,
		Kind:           kind,
		IdempotencyKey: KeyFor(requestID, version, kind),
		Payload:        payload,
		Status:         StatusPending,
		NextAttemptAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func ValidateRecord(rec Record) error {
	if rec.ID == "" {
		return errors.New("effect record id is required")
	}
	if rec.RequestID == "" {
		return errors.New("effect record request id is required")
	}
	if rec.IdempotencyKey == "" {
		return errors.New("effect record idempotency key is required")
	}
	if len(rec.Payload) == 0 {
		return errors.New("effect record payload is required")
	}
	switch rec.Kind {
	case KindCalendarCreate, KindCalendarDelete, KindNotifyEmployee, KindNotifyApprover, KindSheetUpsert:
	default:
		return fmt.Errorf("invalid effect kind: %s", rec.Kind)
	}
	switch rec.Status {
	case StatusPending, StatusSucceeded, StatusFailedRetryable, StatusFailedPermanent:
		return nil
	default:
		return fmt.Errorf("invalid effect status: %s", rec.Status)
	}
}
