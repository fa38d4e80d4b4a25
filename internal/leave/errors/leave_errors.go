package leaveerrors

import (
	"net/http"

	"leavehub/internal/shared/apperror"
)

var (
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEffectID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid side effect record id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrHalfDayMultiDay = apperror.New(
		apperror.CodeInvalidInput,
		"half_day is only allowed on a single-day request",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required when rejecting a request",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrEffectNotFound = apperror.New(
		apperror.CodeNotFound,
		"side effect record not found",
		http.StatusNotFound,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeOverlap,
		"the requested span overlaps an approved leave",
		http.StatusConflict,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"remaining balance is not enough for the requested days",
		http.StatusConflict,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidTransition,
		"the current status does not allow this action",
		http.StatusConflict,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the request owner may perform this action",
		http.StatusForbidden,
	)
	ErrOwnDecision = apperror.New(
		apperror.CodeForbidden,
		"approvers cannot decide their own requests",
		http.StatusForbidden,
	)
	ErrEscalatedTierRequired = apperror.New(
		apperror.CodeForbidden,
		"this request requires an hr-tier approver",
		http.StatusForbidden,
	)
	ErrEffectNotRedrivable = apperror.New(
		apperror.CodeInvalidState,
		"only failed records can be redriven",
		http.StatusConflict,
	)
)
