package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leavehub/internal/calendar"
	"leavehub/internal/effect"
	"leavehub/internal/employee"
	"leavehub/internal/events"
	"leavehub/internal/metrics"
	"leavehub/internal/notify"
	"leavehub/internal/shared/apperror"
	"leavehub/internal/sheets"

	"go.uber.org/zap"
)

// SyncHandler menerjemahkan record jurnal menjadi panggilan adapter. Semua
// yang dibutuhkan eksekusi ada di payload; tabel domain tidak dibaca.
type SyncHandler struct {
	calendar calendar.Adapter
	sheets   sheets.Mirror
	notify   notify.Dispatcher
	effects  effect.Repository
	logger   *zap.Logger
}

var _ effect.Handler = (*SyncHandler)(nil)

func NewSyncHandler(
	calendarAdapter calendar.Adapter,
	sheetMirror sheets.Mirror,
	dispatcher notify.Dispatcher,
	effects effect.Repository,
	logger ...*zap.Logger,
) *SyncHandler {
	l := zap.L().Named("leave.sync")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.sync")
	}
	return &SyncHandler{
		calendar: calendarAdapter,
		sheets:   sheetMirror,
		notify:   dispatcher,
		effects:  effects,
		logger:   l,
	}
}

func (h *SyncHandler) Execute(ctx context.Context, rec effect.Record) (string, error) {
	switch rec.Kind {
	case effect.KindCalendarCreate:
		return h.executeCalendarCreate(ctx, rec)
	case effect.KindCalendarDelete:
		return h.executeCalendarDelete(ctx, rec)
	case effect.KindNotifyEmployee, effect.KindNotifyApprover:
		return h.executeNotify(ctx, rec)
	case effect.KindSheetUpsert:
		return h.executeSheetUpsert(ctx, rec)
	default:
		return "", effect.Permanent(fmt.Errorf("unknown side effect kind %q", rec.Kind))
	}
}

func (h *SyncHandler) executeCalendarCreate(ctx context.Context, rec effect.Record) (string, error) {
	var payload calendarCreatePayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return "", effect.Permanent(fmt.Errorf("decode calendar_create payload: %w", err))
	}
	start, err := time.Parse("2006-01-02", payload.StartDate)
	if err != nil {
		return "", effect.Permanent(fmt.Errorf("calendar_create start date: %w", err))
	}
	end, err := time.Parse("2006-01-02", payload.EndDate)
	if err != nil {
		return "", effect.Permanent(fmt.Errorf("calendar_create end date: %w", err))
	}

	return h.calendar.CreateBusyBlock(ctx, calendar.BusyBlock{
		Summary:       payload.Summary,
		EmployeeEmail: payload.EmployeeEmail,
		StartDate:     start,
		EndDate:       end,
		RequestTag:    payload.RequestTag,
	}, rec.IdempotencyKey)
}

func (h *SyncHandler) executeCalendarDelete(ctx context.Context, rec effect.Record) (string, error) {
	eventID, err := h.effects.FindSucceededResult(ctx, rec.RequestID, effect.KindCalendarCreate)
	if err != nil {
		return "", err
	}
	if eventID == "" {
		// Create yang belum settle masih bisa di-redrive oleh sweeper dan
		// membuat event setelah request direvert. Tunggu sampai create-nya
		// sukses atau gagal permanen, baru penghapusan boleh diputuskan.
		outstanding, err := h.hasUnsettledCreate(ctx, rec.RequestID)
		if err != nil {
			return "", err
		}
		if outstanding {
			return "", effect.Transient(fmt.Errorf("calendar_create for request %s has not settled", rec.RequestID))
		}
		// Tanpa event yang pernah dibuat, penghapusan dianggap selesai.
		h.logger.Debug("calendar delete skipped, no created event",
			zap.String("request_id", rec.RequestID),
		)
		return "", nil
	}
	if err := h.calendar.DeleteBusyBlock(ctx, eventID); err != nil {
		return "", err
	}
	return eventID, nil
}

func (h *SyncHandler) hasUnsettledCreate(ctx context.Context, requestID string) (bool, error) {
	records, err := h.effects.ListByRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.Kind != effect.KindCalendarCreate {
			continue
		}
		if r.Status == effect.StatusPending || r.Status == effect.StatusFailedRetryable {
			return true, nil
		}
	}
	return false, nil
}

func (h *SyncHandler) executeNotify(ctx context.Context, rec effect.Record) (string, error) {
	var payload notifyPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return "", effect.Permanent(fmt.Errorf("decode notify payload: %w", err))
	}
	err := h.notify.Queue(ctx, notify.Message{
		Kind:           payload.Kind,
		RequestID:      rec.RequestID,
		RequestNumber:  payload.RequestNumber,
		RecipientID:    payload.RecipientID,
		RecipientPhone: payload.RecipientPhone,
		Body:           payload.Body,
	}, rec.IdempotencyKey)
	if err != nil {
		return "", err
	}
	return "queued", nil
}

func (h *SyncHandler) executeSheetUpsert(ctx context.Context, rec effect.Record) (string, error) {
	var row sheets.Row
	if err := json.Unmarshal(rec.Payload, &row); err != nil {
		return "", effect.Permanent(fmt.Errorf("decode sheet_upsert payload: %w", err))
	}
	if err := h.sheets.UpsertRow(ctx, row, rec.IdempotencyKey); err != nil {
		return "", err
	}
	return row.RequestNumber, nil
}

// SyncFinalizer menutup jendela sync: SYNCED saat semua record sebuah request
// sukses, APPROVED_SYNC_FAILED saat ada yang gagal permanen. Selama masih ada
// yang retryable, status tidak disentuh.
type SyncFinalizer struct {
	db        *sql.DB
	repo      Repository
	effects   effect.Repository
	employees employee.Repository
	notify    notify.Dispatcher
	grounding GroundingInvalidator
	logger    *zap.Logger
}

var _ effect.Finalizer = (*SyncFinalizer)(nil)

func NewSyncFinalizer(
	db *sql.DB,
	repo Repository,
	effects effect.Repository,
	employees employee.Repository,
	dispatcher notify.Dispatcher,
	grounding GroundingInvalidator,
	logger ...*zap.Logger,
) *SyncFinalizer {
	l := zap.L().Named("leave.finalizer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.finalizer")
	}
	return &SyncFinalizer{
		db:        db,
		repo:      repo,
		effects:   effects,
		employees: employees,
		notify:    dispatcher,
		grounding: grounding,
		logger:    l,
	}
}

func (f *SyncFinalizer) FinalizeSync(ctx context.Context, requestID string) error {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := f.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if l.Status != StatusApprovedPendingSync {
		return nil
	}

	records, err := f.effects.ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}

	target := ""
	switch {
	case anyPermanent(records):
		target = StatusApprovedSyncFailed
	case allSucceeded(records):
		target = StatusSynced
	default:
		return nil
	}

	expected := l.Version
	l.Status = target
	if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
		// Transisi lain menang; pemeriksaan berikutnya melihat status baru.
		if errors.Is(err, apperror.ErrVersionConflict) {
			f.logger.Warn("finalize lost version race", zap.String("request_id", requestID))
			return nil
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	outcome := "synced"
	kind := events.NotificationKindSynced
	if target == StatusApprovedSyncFailed {
		outcome = "sync_failed"
		kind = events.NotificationKindSyncFailed
	}
	metrics.LeaveTransitions.WithLabelValues("finalize", outcome).Inc()
	f.logger.Info("sync finalized",
		zap.String("request_id", requestID),
		zap.String("status", target),
	)

	// Kabar hasil sync dikirim langsung, tanpa jurnal: kalau hilang, status
	// tersimpan tetap benar dan terlihat lewat API.
	f.notifyOutcome(ctx, l, kind)

	if f.grounding != nil {
		if err := f.grounding.InvalidateEmployee(ctx, l.EmployeeID.String()); err != nil {
			f.logger.Warn("grounding cache invalidation failed",
				zap.String("employee_id", l.EmployeeID.String()),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (f *SyncFinalizer) notifyOutcome(ctx context.Context, l *LeaveRequest, kind string) {
	if f.notify == nil {
		return
	}
	emp, err := f.employees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		f.logger.Warn("finalize notification skipped, employee lookup failed",
			zap.String("request_id", l.ID.String()),
			zap.Error(err),
		)
		return
	}
	body := notify.RenderBody(kind, notify.BodyParams{
		EmployeeName:  emp.FullName,
		RequestNumber: l.RequestNumber,
		LeaveType:     l.LeaveType,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		Days:          l.Days,
	})
	msg := notify.Message{
		Kind:           kind,
		RequestID:      l.ID.String(),
		RequestNumber:  l.RequestNumber,
		RecipientID:    emp.ID.String(),
		RecipientPhone: emp.Phone,
		Body:           body,
	}
	if err := f.notify.Queue(ctx, msg, effect.KeyFor(l.ID.String(), l.Version, kind)); err != nil {
		f.logger.Warn("finalize notification failed",
			zap.String("request_id", l.ID.String()),
			zap.Error(err),
		)
	}
}

func anyPermanent(records []effect.Record) bool {
	for _, rec := range records {
		if rec.Status == effect.StatusFailedPermanent {
			return true
		}
	}
	return false
}

func allSucceeded(records []effect.Record) bool {
	if len(records) == 0 {
		return false
	}
	for _, rec := range records {
		if rec.Status != effect.StatusSucceeded {
			return false
		}
	}
	return true
}
