package handlers

import (
	"context"
	"net/http"

	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

// AuditLogLister reads stored audit entries
type AuditLogLister interface {
	List(ctx context.Context, filter repositories.AuditFilter, page repositories.Page) ([]*models.AuditLog, error)
}

// AuditHandler serves the audit trail to MANAGEMENT
type AuditHandler struct {
	logs   AuditLogLister
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logs AuditLogLister, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		logs:   logs,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/audit/logs. Supported filters are user_id,
// action and resource_type.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	logs, err := h.logs.List(r.Context(), filter, page)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = writeList(w, logs, page)
}

func parseAuditFilter(r *http.Request) (repositories.AuditFilter, error) {
	query := r.URL.Query()
	filter := repositories.AuditFilter{
		ResourceType: query.Get("resource_type"),
	}

	if raw := query.Get("user_id"); raw != "" {
		id, err := utils.ParseUUID(raw)
		if err != nil {
			return filter, utils.NewFieldError("user_id", "must be a valid UUID")
		}
		filter.UserID = &id
	}

	if raw := query.Get("action"); raw != "" {
		action := models.AuditAction(raw)
		if !action.Valid() {
			return filter, utils.NewFieldError("action", "is not a known audit action")
		}
		filter.Action = action
	}

	return filter, nil
}
