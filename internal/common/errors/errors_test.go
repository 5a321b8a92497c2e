package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Conversion Tests
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewIndexingFailedError("support-tickets", fmt.Errorf("cluster red"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "INDEXING_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Contains(t, bpmnErr.Details, "cluster red")

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "INDEXING_FAILED", vars["errorCode"])
	assert.Equal(t, "INDEXING_FAILED", vars["originalErrorCode"])
	assert.NotEmpty(t, vars["timestamp"])
}

func TestConvertToBPMNError_NonRetryableHasNoRetries(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidInputError("message is required"))
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
}

func TestNormalize(t *testing.T) {
	stdErr := NewConversationNotFoundError("c-1")
	wrapped := fmt.Errorf("load history: %w", stdErr)

	assert.Same(t, stdErr, Normalize(wrapped))

	foreign := Normalize(fmt.Errorf("socket closed"))
	assert.Equal(t, ErrCodeInternal, foreign.Code)
	assert.Equal(t, "socket closed", foreign.Details)
}

// ==========================
// Classification Tests
// ==========================

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeToolValidationFailed, "TOOL"},
		{ErrCodeUnknownAction, "TOOL"},
		{ErrCodeIntentClassificationFailed, "AI"},
		{ErrCodeLLMTimeout, "AI"},
		{ErrCodeQueryExecutionFailed, "DATABASE"},
		{ErrCodeConversationNotFound, "DATABASE"},
		{ErrCodeNotificationSendFailed, "INTEGRATION"},
		{ErrCodeExternalServiceError, "INTEGRATION"},
		{ErrCodeInvalidInput, "VALIDATION"},
		{ErrCodeInternal, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCategory(tt.code))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidInput))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodePersonaNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrCodeLLMUnavailable))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(ErrCodeLLMTimeout))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeDatabaseInsertFailed))
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseConnectionFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeLLMUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeToolValidationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeUnknownAction))
}

func TestWithMetadata(t *testing.T) {
	err := NewToolExecutionFailedError("send_email", fmt.Errorf("smtp down"))
	require.NotNil(t, err.Metadata)
	assert.Equal(t, "send_email", err.Metadata["tool"])
	assert.Contains(t, err.Error(), "TOOL_EXECUTION_FAILED")
}

func TestStandardError_KeepsCause(t *testing.T) {
	err := NewLLMTimeoutError("llm-openai", context.DeadlineExceeded)
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "StandardError[LLM_TIMEOUT]: LLM request timed out: context deadline exceeded", err.Error())

	wrapped := fmt.Errorf("turn: %w", NewNotificationSendFailedError("sns", fmt.Errorf("throttled")))
	assert.Equal(t, ErrCodeNotificationSendFailed, Normalize(wrapped).Code)

	assert.Nil(t, NewInvalidInputError("x").Unwrap())
	assert.Equal(t, "StandardError[INVALID_INPUT]: Invalid input", NewInvalidInputError("x").Error())
}
