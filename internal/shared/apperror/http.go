package apperror

import (
	"errors"
	"net/http"
)

// HTTPError is the transport-facing projection of an AppError.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// ToHTTP flattens any error into something a handler can write.
// Error yang bukan AppError dianggap kegagalan internal.
func ToHTTP(err error) HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		var details any
		if appErr.Err != nil {
			details = appErr.Err.Error()
		}
		return HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		}
	}

	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An unexpected error occurred",
	}
}
