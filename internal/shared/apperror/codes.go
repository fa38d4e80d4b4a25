package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInvalidState    = "INVALID_STATE"
	CodeVersionConflict = "VERSION_CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"

	// Penolakan spesifik domain cuti
	CodeOverlap             = "OVERLAP"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidTransition   = "INVALID_TRANSITION"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
