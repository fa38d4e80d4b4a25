package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "leavehub/internal/leave/errors"
	"leavehub/internal/metrics"
	"leavehub/internal/shared/apperror"

	"github.com/google/uuid"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, req *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindAll(ctx context.Context) ([]LeaveRequest, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	FindActiveByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	FindRecentTerminalByEmployee(ctx context.Context, employeeID string, limit int) ([]LeaveRequest, error)
	UpdateWithVersion(ctx context.Context, req *LeaveRequest, expectedVersion int64) error
	HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID string) (bool, error)
	CountTeamMembers(ctx context.Context, team string) (int, error)
	CountTeamOnLeave(ctx context.Context, team, excludeEmployeeID string, startDate, endDate time.Time) (int, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const leaveColumns = `
	id::text,
	request_number,
	employee_id::text,
	leave_type,
	start_date,
	end_date,
	half_day,
	days,
	COALESCE(reason, ''),
	status,
	approval_tier,
	decided_by::text,
	COALESCE(decision_source, ''),
	COALESCE(decision_note, ''),
	version,
	created_at,
	updated_at
`

func scanLeaveRequest(row interface{ Scan(...any) error }) (LeaveRequest, error) {
	var req LeaveRequest
	var id, employeeID string
	var decidedBy sql.NullString
	err := row.Scan(
		&id,
		&req.RequestNumber,
		&employeeID,
		&req.LeaveType,
		&req.StartDate,
		&req.EndDate,
		&req.HalfDay,
		&req.Days,
		&req.Reason,
		&req.Status,
		&req.ApprovalTier,
		&decidedBy,
		&req.DecisionSource,
		&req.DecisionNote,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return req, err
	}

	req.ID, _ = uuid.Parse(id)
	req.EmployeeID, _ = uuid.Parse(employeeID)
	if decidedBy.Valid {
		if parsed, perr := uuid.Parse(decidedBy.String); perr == nil {
			req.DecidedBy = &parsed
		}
	}
	return req, nil
}

func (r *repository) Create(ctx context.Context, req *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
	id, request_number, employee_id, leave_type, start_date, end_date,
	half_day, days, reason, status, approval_tier, decision_source,
	decision_note, version, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, LEFT($13, 500), $14, NOW(), NOW())
`

	_, err := r.querier().ExecContext(ctx, query,
		req.ID.String(),
		req.RequestNumber,
		req.EmployeeID.String(),
		req.LeaveType,
		req.StartDate,
		req.EndDate,
		req.HalfDay,
		req.Days,
		req.Reason,
		req.Status,
		req.ApprovalTier,
		req.DecisionSource,
		req.DecisionNote,
		req.Version,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`

	req, err := scanLeaveRequest(r.querier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests ORDER BY created_at DESC`

	rows, err := r.querier().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	query := `
SELECT ` + leaveColumns + `
FROM leave_requests
WHERE employee_id = $1
ORDER BY created_at DESC
`

	rows, err := r.querier().QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

func (r *repository) FindActiveByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	query := `
SELECT ` + leaveColumns + `
FROM leave_requests
WHERE employee_id = $1
	AND status IN ($2, $3, $4, $5, $6)
ORDER BY start_date ASC
`

	rows, err := r.querier().QueryContext(ctx, query, employeeID,
		StatusDraft, StatusPending, StatusApprovedPendingSync, StatusSynced, StatusApprovedSyncFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

func (r *repository) FindRecentTerminalByEmployee(ctx context.Context, employeeID string, limit int) ([]LeaveRequest, error) {
	query := `
SELECT ` + leaveColumns + `
FROM leave_requests
WHERE employee_id = $1
	AND status IN ($2, $3, $4)
ORDER BY updated_at DESC
LIMIT $5
`

	rows, err := r.querier().QueryContext(ctx, query, employeeID,
		StatusRejected, StatusWithdrawn, StatusReverted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

// UpdateWithVersion menulis hasil transisi dengan penjaga versi. Nol baris
// berarti penulis lain menang; pemanggil harus baca ulang dan ulangi seluruh
// transisi, tidak pernah menggabungkan.
func (r *repository) UpdateWithVersion(ctx context.Context, req *LeaveRequest, expectedVersion int64) error {
	query := `
UPDATE leave_requests
SET
	status = $1,
	approval_tier = $2,
	decided_by = $3,
	decision_source = $4,
	decision_note = LEFT($5, 500),
	version = version + 1,
	updated_at = NOW()
WHERE id = $6 AND version = $7
`

	var decidedBy any
	if req.DecidedBy != nil {
		decidedBy = req.DecidedBy.String()
	}

	res, err := r.querier().ExecContext(ctx, query,
		req.Status,
		req.ApprovalTier,
		decidedBy,
		req.DecisionSource,
		req.DecisionNote,
		req.ID.String(),
		expectedVersion,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		metrics.VersionConflicts.Inc()
		return apperror.ErrVersionConflict
	}

	req.Version = expectedVersion + 1
	return nil
}

func (r *repository) HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID string) (bool, error) {
	query := `
SELECT COUNT(1)
FROM leave_requests
WHERE employee_id = $1
	AND status IN ($2, $3, $4)
	AND NOT (end_date < $5 OR start_date > $6)
	AND ($7 = '' OR id::text <> $7)
`

	var count int
	err := r.querier().QueryRowContext(ctx, query, employeeID,
		StatusApprovedPendingSync, StatusSynced, StatusApprovedSyncFailed,
		startDate, endDate, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CountTeamMembers(ctx context.Context, team string) (int, error) {
	query := `SELECT COUNT(1) FROM employees WHERE team = $1`

	var count int
	err := r.querier().QueryRowContext(ctx, query, team).Scan(&count)
	return count, err
}

// CountTeamOnLeave menghitung anggota tim lain yang cutinya sudah disetujui
// dan tumpang tindih dengan rentang kandidat.
func (r *repository) CountTeamOnLeave(ctx context.Context, team, excludeEmployeeID string, startDate, endDate time.Time) (int, error) {
	query := `
SELECT COUNT(DISTINCT lr.employee_id)
FROM leave_requests lr
JOIN employees e ON e.id = lr.employee_id
WHERE e.team = $1
	AND lr.employee_id::text <> $2
	AND lr.status IN ($3, $4, $5)
	AND NOT (lr.end_date < $6 OR lr.start_date > $7)
`

	var count int
	err := r.querier().QueryRowContext(ctx, query, team, excludeEmployeeID,
		StatusApprovedPendingSync, StatusSynced, StatusApprovedSyncFailed,
		startDate, endDate).Scan(&count)
	return count, err
}

func collectLeaveRequests(rows *sql.Rows) ([]LeaveRequest, error) {
	requests := make([]LeaveRequest, 0, 16)
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) querier() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
