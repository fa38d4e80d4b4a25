package assistant

import (
	"github.com/shopspring/decimal"
)

// GroundingResponse adalah snapshot read-only yang dikonsumsi pipeline Q&A.
// Bentuknya sengaja ringkas; pipeline tidak butuh seluruh response API.
type GroundingResponse struct {
	Employee        GroundingEmployee  `json:"employee"`
	Balances        []GroundingBalance `json:"balances"`
	ActiveRequests  []GroundingRequest `json:"active_requests"`
	RecentDecisions []GroundingRequest `json:"recent_decisions"`
	GeneratedAt     string             `json:"generated_at"`
}

type GroundingEmployee struct {
	ID             string `json:"id"`
	EmployeeNumber string `json:"employee_number"`
	FullName       string `json:"full_name"`
	Team           string `json:"team"`
	Role           string `json:"role"`
}

type GroundingBalance struct {
	LeaveType string          `json:"leave_type"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
}

type GroundingRequest struct {
	ID            string          `json:"id"`
	RequestNumber string          `json:"request_number"`
	LeaveType     string          `json:"leave_type"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Days          decimal.Decimal `json:"days"`
	Status        string          `json:"status"`
	DecisionNote  string          `json:"decision_note,omitempty"`
	Version       int64           `json:"version"`
}
