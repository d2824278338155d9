package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidRoot              ErrorCode = "INVALID_ROOT"
	CodeUnreadableFile           ErrorCode = "UNREADABLE_FILE"
	CodeBackendUnavailable       ErrorCode = "BACKEND_UNAVAILABLE"
	CodeBackendRejected          ErrorCode = "BACKEND_REJECTED"
	CodeRateLimited              ErrorCode = "RATE_LIMITED"
	CodeIncompleteRecommendation ErrorCode = "INCOMPLETE_RECOMMENDATION"
	CodeCacheError               ErrorCode = "CACHE_ERROR"
	CodeValidationError          ErrorCode = "VALIDATION_ERROR"
	CodeNotSupported             ErrorCode = "NOT_SUPPORTED"
	CodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath        = "path"
	CtxOperation   = "operation"
	CtxBackend     = "backend"
	CtxFingerprint = "fingerprint"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Retryable reports whether the error represents a transient backend
// condition worth a bounded retry. Rejections never retry.
func Retryable(err error) bool {
	return IsCode(err, CodeBackendUnavailable)
}
