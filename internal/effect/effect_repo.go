package effect

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, rec Record) error
	ListDue(ctx context.Context, limit int) ([]Record, error)
	ListByRequest(ctx context.Context, requestID string) ([]Record, error)
	FindByID(ctx context.Context, id string) (*Record, error)
	FindSucceededResult(ctx context.Context, requestID, kind string) (string, error)
	MarkSucceeded(ctx context.Context, id string, result string) error
	MarkRetry(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, status string) error
	Redrive(ctx context.Context, id string) (int64, error)
	RedriveStale(ctx context.Context, olderThan time.Duration) (int64, error)
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

const recordColumns = `
	id::text,
	request_id::text,
	kind,
	idempotency_key,
	payload,
	status,
	attempts,
	COALESCE(last_error, ''),
	COALESCE(result, ''),
	next_attempt_at,
	created_at,
	updated_at
`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.RequestID,
		&rec.Kind,
		&rec.IdempotencyKey,
		&rec.Payload,
		&rec.Status,
		&rec.Attempts,
		&rec.LastError,
		&rec.Result,
		&rec.NextAttemptAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

func (r *repository) Create(ctx context.Context, rec Record) error {
	query := `
        INSERT INTO side_effect_records (
            id, request_id, kind, idempotency_key, payload, status, attempts, next_attempt_at, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
    `

	exec := r.execer()
	_, err := exec.ExecContext(
		ctx, query,
		rec.ID, rec.RequestID, rec.Kind, rec.IdempotencyKey,
		rec.Payload, rec.Status, rec.Attempts, rec.NextAttemptAt,
	)
	return err
}

func (r *repository) ListDue(ctx context.Context, limit int) ([]Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM side_effect_records
WHERE status = $1
	AND next_attempt_at <= NOW()
ORDER BY created_at ASC
LIMIT $2
`

	rows, err := r.db.QueryContext(ctx, query, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID string) ([]Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM side_effect_records
WHERE request_id = $1
ORDER BY created_at ASC
`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM side_effect_records
WHERE id = $1
`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindSucceededResult mengembalikan hasil adapter dari record sukses terakhir
// untuk kombinasi request+kind; string kosong jika belum pernah sukses.
func (r *repository) FindSucceededResult(ctx context.Context, requestID, kind string) (string, error) {
	query := `
SELECT COALESCE(result, '')
FROM side_effect_records
WHERE request_id = $1 AND kind = $2 AND status = $3
ORDER BY created_at DESC
LIMIT 1
`

	var result string
	err := r.db.QueryRowContext(ctx, query, requestID, kind, StatusSucceeded).Scan(&result)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return result, nil
}

func (r *repository) MarkSucceeded(ctx context.Context, id string, result string) error {
	query := `
UPDATE side_effect_records
SET
	status = $2,
	result = $3,
	last_error = NULL,
	updated_at = NOW()
WHERE id = $1
`
	exec := r.execer()
	_, err := exec.ExecContext(ctx, query, id, StatusSucceeded, result)
	return err
}

func (r *repository) MarkRetry(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error {
	query := `
UPDATE side_effect_records
SET
	attempts = attempts + 1,
	last_error = LEFT($2, 500),
	next_attempt_at = $3,
	updated_at = NOW()
WHERE id = $1
`
	exec := r.execer()
	_, err := exec.ExecContext(ctx, query, id, reason, nextAttemptAt)
	return err
}

func (r *repository) MarkFailed(ctx context.Context, id string, reason string, status string) error {
	query := `
UPDATE side_effect_records
SET
	status = $2,
	attempts = attempts + 1,
	last_error = LEFT($3, 500),
	updated_at = NOW()
WHERE id = $1
`
	exec := r.execer()
	_, err := exec.ExecContext(ctx, query, id, status, reason)
	return err
}

// Redrive mengembalikan record gagal ke pending dengan idempotency key yang
// sama. Mengembalikan jumlah baris supaya caller tahu record memang redrivable.
func (r *repository) Redrive(ctx context.Context, id string) (int64, error) {
	query := `
UPDATE side_effect_records
SET
	status = $2,
	next_attempt_at = NOW(),
	updated_at = NOW()
WHERE id = $1
	AND status IN ($3, $4)
`
	exec := r.execer()
	res, err := exec.ExecContext(ctx, query, id, StatusPending, StatusFailedRetryable, StatusFailedPermanent)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) RedriveStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
UPDATE side_effect_records
SET
	status = $1,
	next_attempt_at = NOW(),
	updated_at = NOW()
WHERE status = $2
	AND updated_at < NOW() - ($3 * INTERVAL '1 second')
`
	exec := r.execer()
	res, err := exec.ExecContext(ctx, query, StatusPending, StatusFailedRetryable, int64(olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
