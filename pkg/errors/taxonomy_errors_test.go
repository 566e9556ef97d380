package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func TestTaxonomyErrors_MatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel *DomainError
	}{
		{"invalid target", NewInvalidTarget("Mammals"), ErrInvalidTarget},
		{"root deletion", NewRootDeletionForbidden("Root"), ErrRootDeletionForbidden},
		{"nothing to classify", NewNothingToClassify("Root", 0, 3), ErrNothingToClassify},
		{"duplicate key", NewDuplicateKey("Reptiles"), ErrDuplicateKey},
		{"generation failed", NewGenerationFailed(stderrors.New("boom")), ErrGenerationFailed},
		{"data mismatch", NewClassificationDataMismatch("x", "unknown item"), ErrClassificationDataMismatch},
		{"persistence", NewPersistenceWriteFailed("classify", stderrors.New("503")), ErrPersistenceWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("command handler failed: %w", tt.err)

			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.NotNil(t, GetDomainError(wrapped))
		})
	}
}

func TestTaxonomyErrors_DistinctKindsDoNotMatch(t *testing.T) {
	err := NewInvalidTarget("Birds")

	assert.NotErrorIs(t, err, ErrRootDeletionForbidden)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestClone_DoesNotMutateSentinel(t *testing.T) {
	// Arrange
	before := len(ErrInvalidTarget.Details)

	// Act
	err := NewInvalidTarget("Fish")

	// Assert
	assert.Equal(t, "Fish", err.Details["key"])
	assert.Len(t, ErrInvalidTarget.Details, before)
	assert.Nil(t, ErrGenerationFailed.Cause)
}

func TestPersistenceWriteFailed_KeepsAggregateCause(t *testing.T) {
	first := stderrors.New("update_items A: 500")
	second := stderrors.New("update_items B: 502")

	err := NewPersistenceWriteFailed("classify", multierr.Combine(first, second))

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Len(t, multierr.Errors(err.Cause), 2)
}

func TestIsLocalShapeError(t *testing.T) {
	assert.True(t, IsLocalShapeError(NewRootDeletionForbidden("Root")))
	assert.True(t, IsLocalShapeError(NewInvalidItems("missing id")))
	assert.False(t, IsLocalShapeError(NewGenerationFailed(nil)))
	assert.False(t, IsLocalShapeError(stderrors.New("plain")))
}

func TestErrorHandler_DomainErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NewInvalidTarget("Ghost"), http.StatusNotFound, "INVALID_TARGET"},
		{"business rule", NewRootDeletionForbidden("Root"), http.StatusUnprocessableEntity, "ROOT_DELETION_FORBIDDEN"},
		{"conflict", NewDuplicateKey("Birds"), http.StatusConflict, "DUPLICATE_KEY"},
		{"external", NewGenerationFailed(stderrors.New("timeout")), http.StatusBadGateway, "GENERATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewErrorHandler(zap.NewNop(), false)
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s/nodes/Root", nil)
			rec := httptest.NewRecorder()

			// Act
			handler.Handle(rec, req, fmt.Errorf("wrapped: %w", tt.err))

			// Assert
			assert.Equal(t, tt.status, rec.Code)
			var body DomainErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestErrorHandler_UnknownErrorHidesMessage(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req, stderrors.New("secret internals"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret internals")
}
