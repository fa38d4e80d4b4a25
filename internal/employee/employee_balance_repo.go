package employee

import (
	"context"
	"database/sql"
	"errors"

	employeeerrors "leavehub/internal/employee/errors"
	"leavehub/internal/shared/apperror"

	"github.com/shopspring/decimal"
)

// BalanceRepository menangani jalur panas saldo: pembacaan dan debit/kredit
// dengan penjaga versi. Dipanggil juga dari transaksi persetujuan cuti.
type BalanceRepository interface {
	WithTx(tx *sql.Tx) BalanceRepository
	FindByEmployee(ctx context.Context, employeeID string) ([]LeaveBalance, error)
	FindByEmployeeAndType(ctx context.Context, employeeID, leaveType string) (*LeaveBalance, error)
	Adjust(ctx context.Context, employeeID, leaveType string, delta decimal.Decimal, expectedVersion int64) error
}

type balanceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewBalanceRepository(db *sql.DB) BalanceRepository {
	return &balanceRepository{db: db}
}

func (r *balanceRepository) WithTx(tx *sql.Tx) BalanceRepository {
	return &balanceRepository{db: r.db, tx: tx}
}

func (r *balanceRepository) FindByEmployee(ctx context.Context, employeeID string) ([]LeaveBalance, error) {
	query := `
SELECT
	id::text,
	employee_id::text,
	leave_type,
	balance,
	version,
	created_at,
	updated_at
FROM leave_balances
WHERE employee_id = $1
ORDER BY leave_type ASC
`

	rows, err := r.querier().QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]LeaveBalance, 0, 6)
	for rows.Next() {
		var b LeaveBalance
		var id, emplID string
		if err := rows.Scan(
			&id,
			&emplID,
			&b.LeaveType,
			&b.Balance,
			&b.Version,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.ID = parseUUID(id)
		b.EmployeeID = parseUUID(emplID)
		balances = append(balances, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return balances, nil
}

func (r *balanceRepository) FindByEmployeeAndType(ctx context.Context, employeeID, leaveType string) (*LeaveBalance, error) {
	query := `
SELECT
	id::text,
	employee_id::text,
	leave_type,
	balance,
	version,
	created_at,
	updated_at
FROM leave_balances
WHERE employee_id = $1 AND leave_type = $2
`

	var b LeaveBalance
	var id, emplID string
	err := r.querier().QueryRowContext(ctx, query, employeeID, leaveType).Scan(
		&id,
		&emplID,
		&b.LeaveType,
		&b.Balance,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, employeeerrors.ErrBalanceNotFound
	}
	if err != nil {
		return nil, err
	}

	b.ID = parseUUID(id)
	b.EmployeeID = parseUUID(emplID)
	return &b, nil
}

// Adjust menambahkan delta (negatif untuk debit) dengan penjaga versi dan
// penjaga saldo non-negatif dalam satu UPDATE.
func (r *balanceRepository) Adjust(ctx context.Context, employeeID, leaveType string, delta decimal.Decimal, expectedVersion int64) error {
	query := `
UPDATE leave_balances
SET
	balance = balance + $1,
	version = version + 1,
	updated_at = NOW()
WHERE employee_id = $2
	AND leave_type = $3
	AND version = $4
	AND balance + $1 >= 0
`

	res, err := r.querier().ExecContext(ctx, query, delta, employeeID, leaveType, expectedVersion)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Tidak ada baris berubah: bedakan versi basi dari saldo kurang.
	current, err := r.FindByEmployeeAndType(ctx, employeeID, leaveType)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return apperror.ErrVersionConflict
	}
	return employeeerrors.ErrInsufficientBalance
}

func (r *balanceRepository) querier() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
