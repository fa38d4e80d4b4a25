package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leavehub/internal/domain"
	"leavehub/internal/effect"
	"leavehub/internal/employee"
	employeeerrors "leavehub/internal/employee/errors"
	"leavehub/internal/events"
	leaveerrors "leavehub/internal/leave/errors"
	"leavehub/internal/metrics"
	"leavehub/internal/notify"
	"leavehub/internal/shared/apperror"
	"leavehub/internal/shared/counter"
	"leavehub/internal/sheets"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GroundingInvalidator menjatuhkan cache grounding asisten seorang karyawan.
// Implementasinya ada di paket assistant; nil berarti tanpa cache.
type GroundingInvalidator interface {
	InvalidateEmployee(ctx context.Context, employeeID string) error
}

type Service interface {
	Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, actorID, actorRole string, all bool) ([]LeaveResponse, error)
	GetByID(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error)
	Submit(ctx context.Context, actorID, id string) (LeaveResponse, error)
	Approve(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error)
	Reject(ctx context.Context, actorID, id, reason string) (LeaveResponse, error)
	Withdraw(ctx context.Context, actorID, id string) (LeaveResponse, error)
	Revert(ctx context.Context, actorID, id, note string) (LeaveResponse, error)
	ListEffects(ctx context.Context, actorID, actorRole, id string) ([]EffectResponse, error)
	RedriveEffect(ctx context.Context, actorID, id, effectID string) (EffectResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	effects   effect.Repository
	balances  employee.BalanceRepository
	employees employee.Repository
	counter   counter.Repository
	resolver  *ConflictResolver
	policy    ApprovalPolicy
	grounding GroundingInvalidator
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	effects effect.Repository,
	balances employee.BalanceRepository,
	employees employee.Repository,
	counterRepo counter.Repository,
	resolver *ConflictResolver,
	policy ApprovalPolicy,
	grounding GroundingInvalidator,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		effects:   effects,
		balances:  balances,
		employees: employees,
		counter:   counterRepo,
		resolver:  resolver,
		policy:    policy,
		grounding: grounding,
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveResponse, error) {
	// Klien lama mengirim tipe dalam huruf kecil; bentuk tersimpan selalu
	// huruf besar.
	req.LeaveType = strings.ToUpper(strings.TrimSpace(req.LeaveType))

	s.logger.Debug("create leave requested",
		zap.String("actor_id", actorID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeUUID, startDate, endDate, days, err := validateCreateRequest(actorID, req)
	if err != nil {
		s.logger.Warn("create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if _, err := s.employees.FindByID(ctx, actorID); err != nil {
		return LeaveResponse{}, mapEmployeeLookupError(err)
	}

	seq, err := s.counter.GetNextValue(ctx, counter.TypeRequestNumber)
	if err != nil {
		s.logger.Error("create leave request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		ID:            uuid.New(),
		RequestNumber: fmt.Sprintf("LR-%06d", seq),
		EmployeeID:    employeeUUID,
		LeaveType:     req.LeaveType,
		StartDate:     startDate,
		EndDate:       endDate,
		HalfDay:       req.HalfDay,
		Days:          days,
		Reason:        req.Reason,
		Status:        StatusDraft,
		ApprovalTier:  TierManager,
		Version:       1,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("create", "ok").Inc()
	s.dropGrounding(ctx, actorID)
	s.logger.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("employee_id", actorID),
	)

	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, actorID, actorRole string, all bool) ([]LeaveResponse, error) {
	if all {
		if actorRole != TierManager && actorRole != TierHR {
			return nil, apperror.ErrForbidden
		}
		requests, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(requests), nil
	}

	requests, err := s.repo.FindByEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetByID(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID.String() != actorID && actorRole != TierManager && actorRole != TierHR {
		return LeaveResponse{}, apperror.ErrForbidden
	}
	return mapToResponse(*l), nil
}

// Submit menjalankan DRAFT -> PENDING: resolver menilai kandidat, eskalasi
// menaikkan tier, lalu policy ditanya apakah hop persetujuan langsung jalan.
func (s *service) Submit(ctx context.Context, actorID, id string) (LeaveResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID.String() != actorID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if !CanTransition(l.Status, StatusPending) {
		s.logger.Warn("submit leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	emp, err := s.employees.FindByID(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, mapEmployeeLookupError(err)
	}

	in, err := s.gatherResolverInput(ctx, tx, qtx, l, emp.Team)
	if err != nil {
		s.logger.Error("submit leave resolver input failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	res := s.resolver.Resolve(in)
	switch res.Outcome {
	case OutcomeRejectedOverlap:
		metrics.LeaveTransitions.WithLabelValues("submit", "rejected_overlap").Inc()
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	case OutcomeRejectedInsufficientBalance:
		metrics.LeaveTransitions.WithLabelValues("submit", "rejected_insufficient_balance").Inc()
		return LeaveResponse{}, leaveerrors.ErrInsufficientBalance
	case OutcomeRequiresEscalatedApproval:
		l.ApprovalTier = TierHR
	}

	expected := l.Version
	l.Status = StatusPending
	if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
		s.logger.Error("submit leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	// Approver dikabari lewat jurnal; tanpa manager record tetap dibuat dan
	// consumer melewatkan penerima tanpa nomor.
	approverID, approverPhone := "", ""
	if emp.ManagerID != nil {
		if mgr, merr := s.employees.FindByID(ctx, emp.ManagerID.String()); merr == nil {
			approverID = mgr.ID.String()
			approverPhone = mgr.Phone
		}
	}
	body := notify.RenderBody(events.NotificationKindSubmitted, notify.BodyParams{
		EmployeeName:  emp.FullName,
		RequestNumber: l.RequestNumber,
		LeaveType:     l.LeaveType,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		Days:          l.Days,
		Reason:        l.Reason,
	})
	if err := s.scheduleEffect(ctx, tx, l, effect.KindNotifyApprover, notifyPayload{
		Kind:           events.NotificationKindSubmitted,
		RecipientID:    approverID,
		RecipientPhone: approverPhone,
		Body:           body,
		RequestNumber:  l.RequestNumber,
	}); err != nil {
		s.logger.Error("submit leave schedule notify failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("submit", "ok").Inc()
	s.dropGrounding(ctx, actorID)
	s.logger.Info("submit leave success",
		zap.String("leave_id", id),
		zap.String("approval_tier", l.ApprovalTier),
		zap.String("resolution", res.Outcome),
	)

	if s.policy != nil && s.policy.Decide(ctx, l, res) == PolicyDecisionAutoApprove {
		resp, aerr := s.approve(ctx, id, nil, DecisionSourcePolicy, "")
		if aerr != nil {
			// Submit sudah final; request tinggal menunggu approver manusia.
			s.logger.Warn("policy auto approval failed, request stays pending",
				zap.String("leave_id", id),
				zap.Error(aerr),
			)
			return mapToResponse(*l), nil
		}
		return resp, nil
	}

	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error) {
	s.logger.Debug("approve leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
		zap.String("actor_role", actorRole),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	return s.approve(ctx, id, &actorUUID, DecisionSourceApprover, actorRole)
}

// approve dipakai bersama oleh approver manusia dan hop auto-approve policy
// (decider nil, decision_source = policy).
func (s *service) approve(ctx context.Context, id string, decider *uuid.UUID, decisionSource, actorRole string) (LeaveResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if decider != nil {
		if l.EmployeeID == *decider {
			return LeaveResponse{}, leaveerrors.ErrOwnDecision
		}
		// Nama tier sengaja sama dengan nama role.
		if l.ApprovalTier == TierHR && actorRole != TierHR {
			return LeaveResponse{}, leaveerrors.ErrEscalatedTierRequired
		}
	}
	if l.Status != StatusPending {
		s.logger.Warn("approve leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	// Ledger bisa berubah sejak submit; persetujuan basi ditolak, tidak
	// pernah diloloskan diam-diam.
	overlap, err := qtx.HasOverlapping(ctx, l.EmployeeID.String(), l.StartDate, l.EndDate, id)
	if err != nil {
		s.logger.Error("approve leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		metrics.LeaveTransitions.WithLabelValues("approve", "rejected_overlap").Inc()
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	if !domain.BalanceExempt(l.LeaveType) {
		btx := s.balances.WithTx(tx)
		bal, err := btx.FindByEmployeeAndType(ctx, l.EmployeeID.String(), l.LeaveType)
		if errors.Is(err, employeeerrors.ErrBalanceNotFound) {
			return LeaveResponse{}, leaveerrors.ErrInsufficientBalance
		}
		if err != nil {
			return LeaveResponse{}, err
		}
		if bal.Balance.LessThan(l.Days) {
			metrics.LeaveTransitions.WithLabelValues("approve", "rejected_insufficient_balance").Inc()
			return LeaveResponse{}, leaveerrors.ErrInsufficientBalance
		}
		if err := btx.Adjust(ctx, l.EmployeeID.String(), l.LeaveType, l.Days.Neg(), bal.Version); err != nil {
			s.logger.Error("approve leave balance debit failed",
				zap.String("leave_id", id),
				zap.Error(err),
			)
			return LeaveResponse{}, err
		}
	}

	expected := l.Version
	l.Status = StatusApprovedPendingSync
	l.DecidedBy = decider
	l.DecisionSource = decisionSource
	if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
		s.logger.Error("approve leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	emp, err := s.employees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, mapEmployeeLookupError(err)
	}

	if err := s.scheduleEffect(ctx, tx, l, effect.KindCalendarCreate, calendarCreatePayload{
		Summary:       "Leave: " + emp.FullName,
		EmployeeEmail: emp.Email,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		RequestTag:    l.RequestNumber,
	}); err != nil {
		return LeaveResponse{}, err
	}

	body := notify.RenderBody(events.NotificationKindApproved, notify.BodyParams{
		EmployeeName:  emp.FullName,
		RequestNumber: l.RequestNumber,
		LeaveType:     l.LeaveType,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		Days:          l.Days,
	})
	if err := s.scheduleEffect(ctx, tx, l, effect.KindNotifyEmployee, notifyPayload{
		Kind:           events.NotificationKindApproved,
		RecipientID:    emp.ID.String(),
		RecipientPhone: emp.Phone,
		Body:           body,
		RequestNumber:  l.RequestNumber,
	}); err != nil {
		return LeaveResponse{}, err
	}

	if err := s.scheduleEffect(ctx, tx, l, effect.KindSheetUpsert, s.sheetRow(ctx, l, emp)); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("approve", "ok").Inc()
	s.dropGrounding(ctx, l.EmployeeID.String())
	s.logger.Info("approve leave success",
		zap.String("leave_id", id),
		zap.String("decision_source", decisionSource),
		zap.Int64("version", l.Version),
	)

	return mapToResponse(*l), nil
}

func (s *service) Reject(ctx context.Context, actorID, id, reason string) (LeaveResponse, error) {
	s.logger.Debug("reject leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if strings.TrimSpace(reason) == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID == actorUUID {
		return LeaveResponse{}, leaveerrors.ErrOwnDecision
	}
	if !CanTransition(l.Status, StatusRejected) {
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	expected := l.Version
	l.Status = StatusRejected
	l.DecidedBy = &actorUUID
	l.DecisionSource = DecisionSourceApprover
	l.DecisionNote = reason
	if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
		s.logger.Error("reject leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	emp, err := s.employees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, mapEmployeeLookupError(err)
	}
	body := notify.RenderBody(events.NotificationKindRejected, notify.BodyParams{
		EmployeeName:  emp.FullName,
		RequestNumber: l.RequestNumber,
		LeaveType:     l.LeaveType,
		Reason:        reason,
	})
	if err := s.scheduleEffect(ctx, tx, l, effect.KindNotifyEmployee, notifyPayload{
		Kind:           events.NotificationKindRejected,
		RecipientID:    emp.ID.String(),
		RecipientPhone: emp.Phone,
		Body:           body,
		RequestNumber:  l.RequestNumber,
	}); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("reject", "ok").Inc()
	s.dropGrounding(ctx, l.EmployeeID.String())
	s.logger.Info("reject leave success", zap.String("leave_id", id))

	return mapToResponse(*l), nil
}

func (s *service) Withdraw(ctx context.Context, actorID, id string) (LeaveResponse, error) {
	s.logger.Debug("withdraw leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("withdraw leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID.String() != actorID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if !CanTransition(l.Status, StatusWithdrawn) {
		s.logger.Warn("withdraw leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	wasPending := l.Status == StatusPending
	expected := l.Version
	l.Status = StatusWithdrawn
	if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
		s.logger.Error("withdraw leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	// Draft yang ditarik belum dilihat siapa pun; hanya penarikan dari
	// PENDING yang dikabari.
	if wasPending {
		emp, err := s.employees.FindByID(ctx, actorID)
		if err != nil {
			return LeaveResponse{}, mapEmployeeLookupError(err)
		}
		body := notify.RenderBody(events.NotificationKindWithdrawn, notify.BodyParams{
			EmployeeName:  emp.FullName,
			RequestNumber: l.RequestNumber,
			LeaveType:     l.LeaveType,
		})
		if err := s.scheduleEffect(ctx, tx, l, effect.KindNotifyEmployee, notifyPayload{
			Kind:           events.NotificationKindWithdrawn,
			RecipientID:    emp.ID.String(),
			RecipientPhone: emp.Phone,
			Body:           body,
			RequestNumber:  l.RequestNumber,
		}); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("withdraw leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("withdraw", "ok").Inc()
	s.dropGrounding(ctx, actorID)
	s.logger.Info("withdraw leave success", zap.String("leave_id", id))

	return mapToResponse(*l), nil
}

// Revert membatalkan request yang sudah disetujui: saldo dikreditkan kembali
// tepat sekali, lalu blok kalender dihapus dan mirror diperbarui.
func (s *service) Revert(ctx context.Context, actorID, id, note string) (LeaveResponse, error) {
	s.logger.Debug("revert leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("revert leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !CanTransition(l.Status, StatusReverted) {
		s.logger.Warn("revert leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	if !domain.BalanceExempt(l.LeaveType) {
		btx := s.balances.WithTx(tx)
		bal, err := btx.FindByEmployeeAndType(ctx, l.EmployeeID.String(), l.LeaveType)
		if err != nil {
			return LeaveResponse{}, err
		}
		if err := btx.Adjust(ctx, l.EmployeeID.String(), l.LeaveType, l.Days, bal.Version); err != nil {
			s.logger.Error("revert leave balance credit failed",
				zap.String("leave_id", id),
				zap.Error(err),
			)
			return LeaveResponse{}, err
		}
	}

	expected := l.Version
	l.Status = StatusReverted
	l.DecidedBy = &actorUUID
	l.DecisionSource = DecisionSourceApprover
	l.DecisionNote = note
	if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
		s.logger.Error("revert leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	emp, err := s.employees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, mapEmployeeLookupError(err)
	}

	if err := s.scheduleEffect(ctx, tx, l, effect.KindCalendarDelete, calendarDeletePayload{
		RequestTag: l.RequestNumber,
	}); err != nil {
		return LeaveResponse{}, err
	}

	body := notify.RenderBody(events.NotificationKindReverted, notify.BodyParams{
		EmployeeName:  emp.FullName,
		RequestNumber: l.RequestNumber,
		LeaveType:     l.LeaveType,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		Days:          l.Days,
	})
	if err := s.scheduleEffect(ctx, tx, l, effect.KindNotifyEmployee, notifyPayload{
		Kind:           events.NotificationKindReverted,
		RecipientID:    emp.ID.String(),
		RecipientPhone: emp.Phone,
		Body:           body,
		RequestNumber:  l.RequestNumber,
	}); err != nil {
		return LeaveResponse{}, err
	}

	if err := s.scheduleEffect(ctx, tx, l, effect.KindSheetUpsert, s.sheetRow(ctx, l, emp)); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("revert leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("revert", "ok").Inc()
	s.dropGrounding(ctx, l.EmployeeID.String())
	s.logger.Info("revert leave success", zap.String("leave_id", id))

	return mapToResponse(*l), nil
}

func (s *service) ListEffects(ctx context.Context, actorID, actorRole, id string) ([]EffectResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.EmployeeID.String() != actorID && actorRole != TierManager && actorRole != TierHR {
		return nil, apperror.ErrForbidden
	}

	records, err := s.effects.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]EffectResponse, len(records))
	for i, rec := range records {
		resp[i] = mapEffectToResponse(rec)
	}
	return resp, nil
}

// RedriveEffect mengembalikan satu record gagal ke pending dengan idempotency
// key yang sama dan membuka kembali jendela sync request-nya.
func (s *service) RedriveEffect(ctx context.Context, actorID, id, effectID string) (EffectResponse, error) {
	s.logger.Debug("redrive effect requested",
		zap.String("leave_id", id),
		zap.String("effect_id", effectID),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return EffectResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if _, err := uuid.Parse(effectID); err != nil {
		return EffectResponse{}, leaveerrors.ErrInvalidEffectID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("redrive effect begin tx failed", zap.Error(err))
		return EffectResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	etx := s.effects.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		return EffectResponse{}, err
	}

	rec, err := etx.FindByID(ctx, effectID)
	if errors.Is(err, sql.ErrNoRows) {
		return EffectResponse{}, leaveerrors.ErrEffectNotFound
	}
	if err != nil {
		return EffectResponse{}, err
	}
	if rec.RequestID != id {
		return EffectResponse{}, leaveerrors.ErrEffectNotFound
	}

	rows, err := etx.Redrive(ctx, effectID)
	if err != nil {
		s.logger.Error("redrive effect persist failed", zap.String("effect_id", effectID), zap.Error(err))
		return EffectResponse{}, err
	}
	if rows == 0 {
		return EffectResponse{}, leaveerrors.ErrEffectNotRedrivable
	}

	if l.Status == StatusApprovedSyncFailed {
		expected := l.Version
		l.Status = StatusApprovedPendingSync
		if err := qtx.UpdateWithVersion(ctx, l, expected); err != nil {
			s.logger.Error("redrive effect reopen sync failed", zap.String("leave_id", id), zap.Error(err))
			return EffectResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("redrive effect commit failed", zap.Error(err))
		return EffectResponse{}, err
	}

	metrics.LeaveTransitions.WithLabelValues("redrive", "ok").Inc()
	s.dropGrounding(ctx, l.EmployeeID.String())
	s.logger.Info("redrive effect success",
		zap.String("leave_id", id),
		zap.String("effect_id", effectID),
		zap.String("kind", rec.Kind),
	)

	fresh, err := s.effects.FindByID(ctx, effectID)
	if err != nil {
		return EffectResponse{}, err
	}
	return mapEffectToResponse(*fresh), nil
}

func (s *service) gatherResolverInput(ctx context.Context, tx *sql.Tx, qtx Repository, l *LeaveRequest, team string) (ResolverInput, error) {
	in := ResolverInput{Request: l}

	overlap, err := qtx.HasOverlapping(ctx, l.EmployeeID.String(), l.StartDate, l.EndDate, l.ID.String())
	if err != nil {
		return in, err
	}
	in.HasOverlap = overlap

	if !domain.BalanceExempt(l.LeaveType) {
		bal, err := s.balances.WithTx(tx).FindByEmployeeAndType(ctx, l.EmployeeID.String(), l.LeaveType)
		if err != nil && !errors.Is(err, employeeerrors.ErrBalanceNotFound) {
			return in, err
		}
		if err == nil {
			in.Balance = bal.Balance
			in.BalanceKnown = true
		}
	}

	in.TeamSize, err = qtx.CountTeamMembers(ctx, team)
	if err != nil {
		return in, err
	}
	in.TeamOnLeave, err = qtx.CountTeamOnLeave(ctx, team, l.EmployeeID.String(), l.StartDate, l.EndDate)
	if err != nil {
		return in, err
	}

	return in, nil
}

func (s *service) scheduleEffect(ctx context.Context, tx *sql.Tx, l *LeaveRequest, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	rec := effect.NewRecord(l.ID.String(), l.Version, kind, raw)
	return s.effects.WithTx(tx).Create(ctx, rec)
}

func (s *service) sheetRow(ctx context.Context, l *LeaveRequest, emp *employee.Employee) sheets.Row {
	row := sheets.Row{
		RequestNumber: l.RequestNumber,
		EmployeeName:  emp.FullName,
		LeaveType:     l.LeaveType,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		Days:          l.Days,
		Status:        l.Status,
	}
	if l.DecisionSource == DecisionSourcePolicy {
		row.DecidedBy = "policy"
	} else if l.DecidedBy != nil {
		row.DecidedBy = l.DecidedBy.String()
		if approver, err := s.employees.FindByID(ctx, l.DecidedBy.String()); err == nil {
			row.DecidedBy = approver.FullName
		}
	}
	return row
}

func (s *service) dropGrounding(ctx context.Context, employeeID string) {
	if s.grounding == nil {
		return
	}
	if err := s.grounding.InvalidateEmployee(ctx, employeeID); err != nil {
		s.logger.Warn("grounding cache invalidation failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
	}
}

func validateCreateRequest(actorID string, req CreateLeaveRequest) (uuid.UUID, time.Time, time.Time, decimal.Decimal, error) {
	employeeUUID, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidActorID
	}
	if !domain.ValidLeaveType(req.LeaveType) {
		return uuid.Nil, time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidLeaveType
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, decimal.Zero, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, decimal.Zero, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrInvalidDateRange
	}
	if req.HalfDay && !startDate.Equal(endDate) {
		return uuid.Nil, time.Time{}, time.Time{}, decimal.Zero, leaveerrors.ErrHalfDayMultiDay
	}

	days := decimal.NewFromInt(int64(endDate.Sub(startDate).Hours()/24) + 1)
	if req.HalfDay {
		days = decimal.NewFromFloat(0.5)
	}
	return employeeUUID, startDate, endDate, days, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapEmployeeLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}
	return err
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:             l.ID.String(),
		RequestNumber:  l.RequestNumber,
		EmployeeID:     l.EmployeeID.String(),
		LeaveType:      l.LeaveType,
		StartDate:      l.StartDate.Format("2006-01-02"),
		EndDate:        l.EndDate.Format("2006-01-02"),
		HalfDay:        l.HalfDay,
		Days:           l.Days,
		Reason:         l.Reason,
		Status:         l.Status,
		ApprovalTier:   l.ApprovalTier,
		DecisionSource: l.DecisionSource,
		DecisionNote:   l.DecisionNote,
		Version:        l.Version,
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      l.UpdatedAt.Format(time.RFC3339),
	}
	if l.DecidedBy != nil {
		v := l.DecidedBy.String()
		resp.DecidedBy = &v
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func mapEffectToResponse(rec effect.Record) EffectResponse {
	return EffectResponse{
		ID:             rec.ID,
		Kind:           rec.Kind,
		Status:         rec.Status,
		Attempts:       rec.Attempts,
		IdempotencyKey: rec.IdempotencyKey,
		LastError:      rec.LastError,
		Result:         rec.Result,
		NextAttemptAt:  rec.NextAttemptAt.Format(time.RFC3339),
	}
}
