package sheets

import (
	"context"

	"github.com/shopspring/decimal"
)

// Row adalah satu baris mirror di spreadsheet pelacak cuti, dikunci oleh
// nomor request. Spreadsheet hanya cermin; ledger tetap sumber kebenaran.
type Row struct {
	RequestNumber string          `json:"request_number"`
	EmployeeName  string          `json:"employee_name"`
	LeaveType     string          `json:"leave_type"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Days          decimal.Decimal `json:"days"`
	Status        string          `json:"status"`
	DecidedBy     string          `json:"decided_by,omitempty"`
}

type Mirror interface {
	UpsertRow(ctx context.Context, row Row, idempotencyKey string) error
}
