package employeeerrors

import (
	"net/http"

	"leavehub/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrEmployeeNumberAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee number already exists",
		http.StatusConflict,
	)
	ErrManagerNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"Manager not found",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave balance not found for this employee and type",
		http.StatusNotFound,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"Remaining balance is not enough for the requested days",
		http.StatusConflict,
	)
)
