package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error. Code doubles as the error kind:
// every constructor below maps one failure class onto the HTTP status the
// handlers answer with.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequestError creates a 400 Bad Request error. Used for undecodable
// request and webhook bodies.
func BadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// UnauthorizedError creates a 401 Unauthorized error
func UnauthorizedError(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, message, err)
}

// ForbiddenError creates a 403 Forbidden error
func ForbiddenError(message string, err error) *AppError {
	return NewAppError(http.StatusForbidden, message, err)
}

// NotFoundError creates a 404 Not Found error
func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// ConflictError creates a 409 Conflict error
func ConflictError(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

// UnprocessableError creates a 422 error for input that parsed but is invalid
func UnprocessableError(message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, message, err)
}

// InternalError creates a 500 error for persistence failures
func InternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// BadGatewayError creates a 502 error for payment processor failures
func BadGatewayError(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, message, err)
}

// ServiceUnavailableError creates a 503 Service Unavailable error
func ServiceUnavailableError(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, err)
}

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError returns the first AppError in err's chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func hasCode(err error, code int) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return hasCode(err, http.StatusNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, http.StatusUnprocessableEntity)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return hasCode(err, http.StatusUnauthorized)
}

// IsBadRequestError checks if an error is a malformed input error
func IsBadRequestError(err error) bool {
	return hasCode(err, http.StatusBadRequest)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return hasCode(err, http.StatusConflict)
}

// IsProcessorError checks if an error came from the payment processor
func IsProcessorError(err error) bool {
	return hasCode(err, http.StatusBadGateway)
}

// IsInternalServerError checks if an error is an internal server error
func IsInternalServerError(err error) bool {
	return hasCode(err, http.StatusInternalServerError)
}
