package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string     `gorm:"type:varchar(20);not null;uniqueIndex:uq_employee_number"`
	FullName       string     `gorm:"type:varchar(120);not null"`
	Email          string     `gorm:"type:varchar(120);not null;uniqueIndex:uq_employee_email"`
	Phone          string     `gorm:"type:varchar(30);not null"`
	Team           string     `gorm:"type:varchar(60);not null;index:idx_employees_team"`
	Role           string     `gorm:"type:varchar(20);not null;default:'employee'"`
	ManagerID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LeaveBalance adalah saldo per karyawan per tipe cuti. Version naik setiap
// debit/kredit; penulis yang kalah harus baca ulang.
type LeaveBalance struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_employee_type"`
	LeaveType  string          `gorm:"type:varchar(30);not null;uniqueIndex:uq_leave_balances_employee_type"`
	Balance    decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Version    int64           `gorm:"type:bigint;not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
