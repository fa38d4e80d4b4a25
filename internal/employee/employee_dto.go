package employee

import "github.com/shopspring/decimal"

type CreateEmployeeRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required"`
	Team           string `json:"team" binding:"required"`
	Role           string `json:"role" binding:"required,oneof=employee manager hr"`
	ManagerID      string `json:"manager_id" binding:"omitempty,uuid"`
	EmployeeNumber string `json:"employee_number"`
}

type EmployeeResponse struct {
	ID             string `json:"id"`
	EmployeeNumber string `json:"employee_number"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Team           string `json:"team"`
	Role           string `json:"role"`
	ManagerID      string `json:"manager_id,omitempty"`
}

type BalanceResponse struct {
	LeaveType string          `json:"leave_type"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
}
