package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeToolValidationFailed ErrorCode = "TOOL_VALIDATION_FAILED"
	ErrCodeToolExecutionFailed  ErrorCode = "TOOL_EXECUTION_FAILED"
	ErrCodeUnknownAction        ErrorCode = "UNKNOWN_ACTION"

	ErrCodeIntentClassificationFailed ErrorCode = "INTENT_CLASSIFICATION_FAILED"
	ErrCodeLLMTimeout                 ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMUnavailable             ErrorCode = "LLM_UNAVAILABLE"
	ErrCodeLLMSynthesisFailed         ErrorCode = "LLM_SYNTHESIS_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeConversationNotFound     ErrorCode = "CONVERSATION_NOT_FOUND"
	ErrCodePersonaNotFound          ErrorCode = "PERSONA_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "INDEXING_FAILED"
	ErrCodeExternalServiceError   ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("StandardError[%s]: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the error after attaching a metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 2. Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func wrapError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	e := newError(code, message, details, retryable)
	e.cause = cause
	return e
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

func NewToolValidationFailedError(tool string, err error) *StandardError {
	return wrapError(ErrCodeToolValidationFailed, "Tool parameters rejected", err.Error(), false, err).
		WithMetadata("tool", tool)
}

func NewToolExecutionFailedError(tool string, err error) *StandardError {
	return wrapError(ErrCodeToolExecutionFailed, "Tool execution failed", err.Error(), false, err).
		WithMetadata("tool", tool)
}

func NewUnknownActionError(action string, available []string) *StandardError {
	return newError(ErrCodeUnknownAction, "Unknown action type",
		fmt.Sprintf("action: %s, available: %v", action, available), false).
		WithMetadata("action", action)
}

func NewIntentClassificationFailedError(err error) *StandardError {
	return wrapError(ErrCodeIntentClassificationFailed, "Intent classification failed", err.Error(), false, err)
}

func NewLLMTimeoutError(callSite string, err error) *StandardError {
	return wrapError(ErrCodeLLMTimeout, "LLM request timed out", fmt.Sprintf("callSite: %s", callSite), true, err)
}

func NewLLMUnavailableError(err error) *StandardError {
	return wrapError(ErrCodeLLMUnavailable, "LLM backend unavailable", err.Error(), true, err)
}

func NewLLMSynthesisFailedError(err error) *StandardError {
	return wrapError(ErrCodeLLMSynthesisFailed, "Response synthesis failed", err.Error(), true, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return wrapError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err.Error(), true, err)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return wrapError(ErrCodeQueryExecutionFailed, "Query execution failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

func NewDatabaseInsertFailedError(table string, err error) *StandardError {
	return wrapError(ErrCodeDatabaseInsertFailed, "Database insert failed",
		fmt.Sprintf("table: %s, error: %v", table, err), true, err)
}

func NewConversationNotFoundError(conversationID string) *StandardError {
	return newError(ErrCodeConversationNotFound, "Conversation not found",
		fmt.Sprintf("conversationId: %s", conversationID), false)
}

func NewPersonaNotFoundError(key string) *StandardError {
	return newError(ErrCodePersonaNotFound, "Persona not found", fmt.Sprintf("persona: %s", key), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return wrapError(ErrCodeNotificationSendFailed, "Notification send failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true, err)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return wrapError(ErrCodeIndexingFailed, "Document indexing failed",
		fmt.Sprintf("index: %s, error: %v", index, err), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return wrapError(ErrCodeExternalServiceError, "External service error",
		fmt.Sprintf("service: %s, error: %v", service, err), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return wrapError(ErrCodeTimeout, "Operation timed out",
		fmt.Sprintf("service: %s, error: %v", service, err), true, err)
}

// ==========================
// 3. Conversion & Utilities
// ==========================

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeIndexingFailed,
		ErrCodeExternalServiceError:
		return 3
	case ErrCodeLLMUnavailable, ErrCodeLLMSynthesisFailed:
		return 2
	case ErrCodeLLMTimeout, ErrCodeTimeout:
		return 1
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TOOL") || strings.Contains(codeStr, "ACTION"):
		return "TOOL"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") ||
		strings.Contains(codeStr, "NOT_FOUND"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "INDEXING") ||
		strings.Contains(codeStr, "EXTERNAL") || codeStr == string(ErrCodeTimeout):
		return "INTEGRATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the HTTP API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeToolValidationFailed:
		return http.StatusBadRequest
	case ErrCodeConversationNotFound, ErrCodePersonaNotFound, ErrCodeUnknownAction:
		return http.StatusNotFound
	case ErrCodeLLMUnavailable, ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	case ErrCodeLLMTimeout, ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Normalize returns the first StandardError in err's chain, wrapping foreign
// errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}
