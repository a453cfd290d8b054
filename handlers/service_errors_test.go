package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/crm-control-plane/services"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{"not found", services.ErrClientNotFound, http.StatusNotFound, "not_found", "client not found"},
		{"validation", services.ErrClientNotSigned, http.StatusBadRequest, "bad_request", "contracts can only be created for signed clients"},
		{"unauthorized", services.ErrTokenExpired, http.StatusUnauthorized, "unauthorized", "authentication token expired"},
		{"signed contract", services.ErrSignedContract, http.StatusForbidden, "forbidden", "Cannot update a signed contract."},
		{"finished event", services.ErrFinishedEvent, http.StatusForbidden, "forbidden", "Cannot update a finished event."},
		{"conflict", services.ErrDuplicateEmail, http.StatusConflict, "conflict", "email already exists"},
		{"internal", services.WrapInternal("failed to list clients", errors.New("db down")), http.StatusInternalServerError, "internal_error", "An internal error occurred"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "An unexpected error occurred"},
		{"wrapped domain error", fmt.Errorf("update: %w", services.ErrEventNotFound), http.StatusNotFound, "not_found", "event not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.expectedError, response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
		})
	}
}

func TestHandleServiceError_Details(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, services.ErrSalesContactNotSales.WithDetail("id", "42"), zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]interface{}{"id": "42"}, decodeError(t, w).Details)
}

func TestHandleServiceError_Nil(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleValidationError(t *testing.T) {
	t.Run("field errors become details", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleValidationError(w, utils.NewFieldError("limit", "must be a positive integer"), zap.NewNop())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decodeError(t, w)
		assert.Equal(t, "Validation failed", response.Message)
		assert.Equal(t, "limit must be a positive integer", response.Details["limit"])
	})

	t.Run("decode errors keep their message", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleValidationError(w, errors.New("request body is empty"), zap.NewNop())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request body is empty", decodeError(t, w).Message)
	})
}
