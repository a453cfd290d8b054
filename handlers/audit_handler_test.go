package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
	"go.uber.org/zap"
)

type MockAuditLogLister struct {
	mock.Mock
}

func (m *MockAuditLogLister) List(ctx context.Context, filter repositories.AuditFilter, page repositories.Page) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filter, page)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAuditHandler_HandleList(t *testing.T) {
	userID := uuid.New()

	t.Run("passes filters and page to the lister", func(t *testing.T) {
		lister := new(MockAuditLogLister)
		entry := models.NewAuditLog(models.AuditActionForbiddenWithReason, "contract", "PUT")
		lister.On("List", mock.Anything, repositories.AuditFilter{
			UserID:       &userID,
			Action:       models.AuditActionForbiddenWithReason,
			ResourceType: "contract",
		}, repositories.Page{Limit: 10, Offset: 20}).Return([]*models.AuditLog{entry}, nil)

		h := NewAuditHandler(lister, zap.NewNop())
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/audit/logs?user_id="+userID.String()+"&action=forbidden_with_reason&resource_type=contract&limit=10&offset=20", nil)
		w := httptest.NewRecorder()

		h.HandleList(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data struct {
				Items []map[string]interface{} `json:"items"`
				Count int                      `json:"count"`
				Limit int                      `json:"limit"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, 1, body.Data.Count)
		assert.Equal(t, 10, body.Data.Limit)
		assert.Equal(t, "forbidden_with_reason", body.Data.Items[0]["action"])
		lister.AssertExpectations(t)
	})

	t.Run("returns an empty list with defaults", func(t *testing.T) {
		lister := new(MockAuditLogLister)
		lister.On("List", mock.Anything, repositories.AuditFilter{}, repositories.Page{Limit: defaultPageLimit}).
			Return(nil, nil)

		h := NewAuditHandler(lister, zap.NewNop())
		w := httptest.NewRecorder()

		h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"items":[]`)
	})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"malformed user id", "?user_id=nope", "user_id"},
		{"unknown action", "?action=login", "action"},
		{"negative offset", "?offset=-1", "offset"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			lister := new(MockAuditLogLister)
			h := NewAuditHandler(lister, zap.NewNop())
			w := httptest.NewRecorder()

			h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.field)
			lister.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("maps lister failures to 500", func(t *testing.T) {
		lister := new(MockAuditLogLister)
		lister.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, services.WrapInternal("failed to list audit logs", errors.New("db down")))

		h := NewAuditHandler(lister, zap.NewNop())
		w := httptest.NewRecorder()

		h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}
