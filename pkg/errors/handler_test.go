package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorHandler_NonDomainErrors(t *testing.T) {
	validation := NewValidationErrors()
	validation.Add("mode", "mode must be one of: memory remote")

	tests := []struct {
		name     string
		err      error
		status   int
		errType  string
		code     string
		hasField string
	}{
		{"field validation", fmt.Errorf("bind: %w", validation), http.StatusBadRequest, "VALIDATION", "", "fields"},
		{"unavailable", NewUnavailableError("event journal"), http.StatusServiceUnavailable, "UNAVAILABLE", "", ""},
		{"rate limited", NewRateLimitedError(1500 * time.Millisecond), http.StatusTooManyRequests, "RATE_LIMITED", "RATE_LIMITED", "retry_after_seconds"},
		{"store", NewDatabaseError("load_session", stderrors.New("throttled")), http.StatusInternalServerError, "DATABASE", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewErrorHandler(zap.NewNop(), false)
			rec := httptest.NewRecorder()

			// Act
			handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil), tt.err)

			// Assert
			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.errType, body.Type)
			assert.Equal(t, tt.code, body.Code)
			if tt.hasField != "" {
				assert.Contains(t, body.Details, tt.hasField)
			}
			assert.NotContains(t, body.Details, "stack")
		})
	}
}

func TestErrorHandler_DebugAddsStackAndCause(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), true)

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewInternalError("fingerprint failed"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Details["stack"])

	rec = httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), NewGenerationFailed(stderrors.New("classifier 503")))
	var domainBody DomainErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domainBody))
	assert.Equal(t, "classifier 503", domainBody.Details["cause"])
	assert.NotContains(t, ErrGenerationFailed.Details, "cause")
}

func TestErrorHandler_RecoverAnswersPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	wrapped := handler.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"INTERNAL"`)
}

func TestAppError_Matching(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("load: %w", NewExternalError("persistence", cause))

	assert.True(t, IsType(err, ErrorTypeExternal))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, GetAppError(err).HTTPStatus)
	assert.Nil(t, GetAppError(cause))
}
