package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status kanonik sebuah leave request. APPROVED dipecah menjadi tiga status
// tersimpan: begitu disetujui request masuk APPROVED_PENDING_SYNC, lalu
// berakhir di SYNCED atau APPROVED_SYNC_FAILED tergantung hasil side effect.
const (
	StatusDraft               = "DRAFT"
	StatusPending             = "PENDING"
	StatusApprovedPendingSync = "APPROVED_PENDING_SYNC"
	StatusSynced              = "SYNCED"
	StatusApprovedSyncFailed  = "APPROVED_SYNC_FAILED"
	StatusRejected            = "REJECTED"
	StatusWithdrawn           = "WITHDRAWN"
	StatusReverted            = "REVERTED"
)

const (
	TierManager = "manager"
	TierHR      = "hr"
)

const (
	DecisionSourceApprover = "approver"
	DecisionSourcePolicy   = "policy"
)

type LeaveRequest struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RequestNumber string          `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_requests_number"`
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`
	LeaveType     string          `gorm:"type:varchar(20);not null"`
	StartDate     time.Time       `gorm:"type:date;not null"`
	EndDate       time.Time       `gorm:"type:date;not null"`
	HalfDay       bool            `gorm:"not null;default:false"`
	Days          decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Reason        string          `gorm:"type:text"`
	Status        string          `gorm:"type:varchar(30);not null;default:'DRAFT';index:idx_leave_requests_status"`
	ApprovalTier  string          `gorm:"type:varchar(10);not null;default:'manager'"`
	// DecidedBy nil untuk keputusan policy (decision_source = policy).
	DecidedBy      *uuid.UUID `gorm:"type:uuid"`
	DecisionSource string     `gorm:"type:varchar(10)"`
	DecisionNote   string     `gorm:"type:varchar(500)"`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
