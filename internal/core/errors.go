package core

import "fmt"

type ErrorCode string

const (
	ErrBadRequest     ErrorCode = "AUDIT_BAD_REQUEST"
	ErrNotFound       ErrorCode = "AUDIT_NOT_FOUND"
	ErrConflictExists ErrorCode = "AUDIT_CONFLICT_EXISTS"
	ErrNotRegistered  ErrorCode = "AUDIT_NOT_REGISTERED"
	ErrInternal       ErrorCode = "AUDIT_INTERNAL"
)

// HTTPStatus returns the HTTP status code for this error code.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrBadRequest:
		return 400
	case ErrNotFound:
		return 404
	case ErrConflictExists:
		return 409
	case ErrNotRegistered:
		return 500
	default:
		return 500
	}
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
