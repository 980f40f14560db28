// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "insert failure keeps retries",
			err:             NewDatabaseInsertFailedError(fmt.Errorf("connection reset")),
			expectedCode:    "DATABASE_INSERT_FAILED",
			expectedRetries: 3,
		},
		{
			name:            "llm timeout retried once",
			err:             NewLLMTimeoutError("analysis"),
			expectedCode:    "LLM_TIMEOUT",
			expectedRetries: 1,
		},
		{
			name:            "malformed draft is terminal",
			err:             NewMalformedDraftError(fmt.Errorf("intent[0] missing name")),
			expectedCode:    "MALFORMED_DRAFT",
			expectedRetries: 0,
		},
		{
			name:            "unmapped code falls back to raw code",
			err:             &StandardError{Code: "SOMETHING_ELSE", Message: "x", Retryable: true},
			expectedCode:    "SOMETHING_ELSE",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestBPMNError_ToErrorVariables_IncludesMetadata(t *testing.T) {
	stdErr := NewAgentNotFoundError("agent_123").WithMetadata("agentId", "agent_123")
	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "AGENT_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, "agent_123", vars["agentId"])
	assert.Equal(t, false, vars["retryable"])
}

func TestAsStandardError_Unwraps(t *testing.T) {
	wrapped := fmt.Errorf("persist: %w", NewDatabaseInsertFailedError(fmt.Errorf("boom")))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeDatabaseInsertFailed, stdErr.Code)

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeLLMTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeAgentNotFound))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexFailed))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "GENERATION", GetErrorCategory(ErrCodeMalformedDraft))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRequest))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeSearchQueryFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidRequest))
}

func TestRetriesLeft(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Retries: retries}}
	}

	assert.Equal(t, int32(2), retriesLeft(job(3), 3))
	assert.Equal(t, int32(1), retriesLeft(job(5), 1))
	assert.Equal(t, int32(0), retriesLeft(job(0), 3))
}

func TestFailsWithRetries(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Retries: retries}}
	}

	tests := []struct {
		name     string
		err      *StandardError
		retries  int32
		expected bool
	}{
		{name: "llm timeout with retries left", err: NewLLMTimeoutError("analysis"), retries: 3, expected: true},
		{name: "llm failure with retries left", err: NewLLMGenerationFailedError("functions", fmt.Errorf("bad reply")), retries: 3, expected: true},
		{name: "last attempt", err: NewLLMTimeoutError("analysis"), retries: 1, expected: false},
		{name: "rule analysis failure", err: NewAnalysisFailedError(fmt.Errorf("boom")), retries: 3, expected: false},
		{name: "invalid request", err: NewInvalidRequestError("prompt too short"), retries: 3, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, failsWithRetries(job(tt.retries), ConvertToBPMNError(tt.err)))
		})
	}
}

func TestStageErrorCodes(t *testing.T) {
	tests := []struct {
		err      *StandardError
		code     string
		category string
	}{
		{NewAnalysisFailedError(nil), "ANALYSIS_FAILED", "GENERATION"},
		{NewAgentGenerationFailedError(nil), "AGENT_GENERATION_FAILED", "GENERATION"},
		{NewFunctionGenerationFailedError(nil), "FUNCTION_GENERATION_FAILED", "GENERATION"},
		{NewLLMGenerationFailedError("agent_config", nil), "LLM_GENERATION_FAILED", "AI"},
		{NewDatabaseConnectionFailedError(nil), "DATABASE_CONNECTION_FAILED", "DATABASE"},
		{NewQueryExecutionFailedError("get_agent", nil), "QUERY_EXECUTION_FAILED", "DATABASE"},
		{NewElasticsearchConnectionFailedError(nil), "ELASTICSEARCH_CONNECTION_FAILED", "SEARCH"},
		{NewSearchQueryFailedError("order", nil), "SEARCH_QUERY_FAILED", "SEARCH"},
		{NewCacheFailedError(nil), "CACHE_FAILED", "CACHE"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, ConvertToBPMNError(tt.err).Code)
			assert.Equal(t, tt.category, GetErrorCategory(tt.err.Code))
		})
	}
}
