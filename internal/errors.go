package internal

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeAuth      ErrorType = "AUTH_ERROR"
	ErrorTypeNotFound  ErrorType = "NOT_FOUND"
	ErrorTypeUpstream  ErrorType = "UPSTREAM_ERROR"
	ErrorTypeDirectory ErrorType = "DIRECTORY_ERROR"
	ErrorTypeMail      ErrorType = "MAIL_ERROR"
	ErrorTypeConfig    ErrorType = "CONFIG_ERROR"
)

type ErrorCode string

const (
	ErrCodeTokenRejected   ErrorCode = "TOKEN_REJECTED"
	ErrCodeAPIPathNotFound ErrorCode = "API_PATH_NOT_FOUND"
	ErrCodeUpstreamStatus  ErrorCode = "UPSTREAM_STATUS"
	ErrCodeUpstreamDecode  ErrorCode = "UPSTREAM_DECODE"

	ErrCodeEntryNotFound  ErrorCode = "DIRECTORY_ENTRY_NOT_FOUND"
	ErrCodeSearchFailed   ErrorCode = "DIRECTORY_SEARCH_FAILED"
	ErrCodeBindFailed     ErrorCode = "DIRECTORY_BIND_FAILED"
	ErrCodeModifyFailed   ErrorCode = "DIRECTORY_MODIFY_FAILED"
	ErrCodeGroupNotFound  ErrorCode = "DIRECTORY_GROUP_NOT_FOUND"
	ErrCodeMailSendFailed ErrorCode = "MAIL_SEND_FAILED"
	ErrCodeTrainingYear   ErrorCode = "TRAINING_YEAR_MISMATCH"
)

type AppError struct {
	Type ErrorType `json:"type"`
	Code ErrorCode `json:"code"`
	// Message is for operators; Cause keeps the transport-level error.
	Message string `json:"message"`
	// StatusCode carries the upstream HTTP status where one exists.
	StatusCode int   `json:"-"`
	Cause      error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is lets sentinel AppErrors match wrapped copies carrying a cause or a
// more specific message, so errors.Is(err, internal.ErrTokenRejected)
// works across the fetch call chain.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func NewAuthError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuth,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUpstreamError(message string, statusCode int) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Code:       ErrCodeUpstreamStatus,
		Message:    message,
		StatusCode: statusCode,
	}
}

func NewDirectoryError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDirectory,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewMailError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeMail,
		Code:    ErrCodeMailSendFailed,
		Message: message,
		Cause:   cause,
	}
}

var (
	// ErrTokenRejected is terminal: the reporting API refused the bearer
	// token, so retrying the same run cannot succeed.
	ErrTokenRejected = NewAuthError("the provided authorization token is not working", ErrCodeTokenRejected)

	// ErrAPIPathNotFound is terminal: the requested API path does not exist.
	ErrAPIPathNotFound = NewNotFoundError("the provided api path is not found", ErrCodeAPIPathNotFound)

	// ErrEntryNotFound covers both zero and multiple directory matches;
	// an ambiguous lookup is never usable as a DN.
	ErrEntryNotFound = NewDirectoryError("directory entry not found or ambiguous", ErrCodeEntryNotFound, nil)

	ErrGroupNotFound = NewDirectoryError("directory group not found", ErrCodeGroupNotFound, nil)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}
