package autherrors

import (
	"net/http"

	"leavehub/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		apperror.CodeUnauthorized,
		"Email or phone number does not match our records",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"Invalid or malformed token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"Token has expired, please request a new one",
		http.StatusUnauthorized,
	)
	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"Failed to generate token",
		http.StatusInternalServerError,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You don't have permission to access this resource",
		http.StatusForbidden,
	)
)
