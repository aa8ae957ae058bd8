package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeBusiness    ErrorType = "business"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeExpired     ErrorType = "expired"
	ErrorTypePolicy      ErrorType = "policy"
	ErrorTypeUnavailable ErrorType = "unavailable"
)

// Error codes of the crisis engine taxonomy
const (
	CodeInvalidAnswer           = "INVALID_ANSWER"
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeSessionNotFound         = "SESSION_NOT_FOUND"
	CodeSessionExpired          = "SESSION_EXPIRED"
	CodeSessionResolved         = "SESSION_RESOLVED"
	CodeOperationNotAllowed     = "OPERATION_NOT_ALLOWED"
	CodeExecutionLimitExceeded  = "EXECUTION_LIMIT_EXCEEDED"
	CodeDetectionUnavailable    = "DETECTION_UNAVAILABLE"
	CodePerformanceBudgetExceed = "PERFORMANCE_BUDGET_EXCEEDED"
	CodeFeatureDisabled         = "FEATURE_DISABLED"
	CodeInternal                = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
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

// Is matches any AppError carrying the same code, so callers can compare
// against the sentinel values below with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: 400,
	}
}

func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       code,
		Message:    message,
		StatusCode: 422,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeInternal,
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

func NewInvalidAnswerError(message string) *AppError {
	return NewValidationError(CodeInvalidAnswer, message)
}

func NewSessionNotFoundError(sessionID string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       CodeSessionNotFound,
		Message:    "crisis session not found",
		Details:    map[string]interface{}{"session_id": sessionID},
		StatusCode: 404,
	}
}

func NewSessionExpiredError(sessionID string) *AppError {
	return &AppError{
		Type:       ErrorTypeExpired,
		Code:       CodeSessionExpired,
		Message:    "crisis session expired",
		Details:    map[string]interface{}{"session_id": sessionID},
		StatusCode: 410,
	}
}

func NewSessionResolvedError(sessionID string) *AppError {
	return &AppError{
		Type:       ErrorTypeExpired,
		Code:       CodeSessionResolved,
		Message:    "crisis session already resolved",
		Details:    map[string]interface{}{"session_id": sessionID},
		StatusCode: 410,
	}
}

func NewOperationNotAllowedError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypePolicy,
		Code:       CodeOperationNotAllowed,
		Message:    fmt.Sprintf("operation %q is not allowed in a crisis session", operation),
		Details:    map[string]interface{}{"operation": operation},
		StatusCode: 403,
	}
}

func NewExecutionLimitError(operation string, limit int) *AppError {
	return &AppError{
		Type:       ErrorTypePolicy,
		Code:       CodeExecutionLimitExceeded,
		Message:    fmt.Sprintf("operation %q reached its limit of %d executions", operation, limit),
		Details:    map[string]interface{}{"operation": operation, "limit": limit},
		StatusCode: 429,
	}
}

func NewDetectionUnavailableError(reason string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       CodeDetectionUnavailable,
		Message:    "crisis detection unavailable: " + reason,
		StatusCode: 503,
	}
}

func NewPerformanceBudgetError(operation string, budgetMs, actualMs int64) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Code:    CodePerformanceBudgetExceed,
		Message: fmt.Sprintf("operation %q took %dms, budget %dms", operation, actualMs, budgetMs),
		Details: map[string]interface{}{
			"operation": operation,
			"budget_ms": budgetMs,
			"actual_ms": actualMs,
		},
		StatusCode: 200,
	}
}

func NewFeatureDisabledError(feature string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       CodeFeatureDisabled,
		Message:    fmt.Sprintf("feature %q is disabled", feature),
		StatusCode: 503,
	}
}

// Sentinels for errors.Is comparisons. Never mutate these; use the
// constructors to build returned errors.
var (
	ErrInvalidAnswer          = &AppError{Code: CodeInvalidAnswer}
	ErrInvalidRequest         = &AppError{Code: CodeInvalidRequest}
	ErrSessionNotFound        = &AppError{Code: CodeSessionNotFound}
	ErrSessionExpired         = &AppError{Code: CodeSessionExpired}
	ErrSessionResolved        = &AppError{Code: CodeSessionResolved}
	ErrOperationNotAllowed    = &AppError{Code: CodeOperationNotAllowed}
	ErrExecutionLimitExceeded = &AppError{Code: CodeExecutionLimitExceeded}
	ErrDetectionUnavailable   = &AppError{Code: CodeDetectionUnavailable}
	ErrFeatureDisabled        = &AppError{Code: CodeFeatureDisabled}
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// CodeOf returns the AppError code of err, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return 500
}
