package leave

import "github.com/shopspring/decimal"

type CreateLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	HalfDay   bool   `json:"half_day"`
	Reason    string `json:"reason" binding:"max=500"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type RevertLeaveRequest struct {
	Note string `json:"note" binding:"max=500"`
}

type LeaveResponse struct {
	ID             string          `json:"id"`
	RequestNumber  string          `json:"request_number"`
	EmployeeID     string          `json:"employee_id"`
	LeaveType      string          `json:"leave_type"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	HalfDay        bool            `json:"half_day"`
	Days           decimal.Decimal `json:"days"`
	Reason         string          `json:"reason,omitempty"`
	Status         string          `json:"status"`
	ApprovalTier   string          `json:"approval_tier"`
	DecidedBy      *string         `json:"decided_by,omitempty"`
	DecisionSource string          `json:"decision_source,omitempty"`
	DecisionNote   string          `json:"decision_note,omitempty"`
	Version        int64           `json:"version"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

type EffectResponse struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Status         string `json:"status"`
	Attempts       int    `json:"attempts"`
	IdempotencyKey string `json:"idempotency_key"`
	LastError      string `json:"last_error,omitempty"`
	Result         string `json:"result,omitempty"`
	NextAttemptAt  string `json:"next_attempt_at"`
}
